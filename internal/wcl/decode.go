package wcl

import (
	"encoding/json"
	"fmt"

	"raidstats/internal/aggregate"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse[T any] struct {
	Data   *T             `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type listing[T any] struct {
	HasMorePages bool `json:"has_more_pages"`
	Data         []T  `json:"data"`
}

type wireFight struct {
	ID          int `json:"id"`
	EncounterID int `json:"encounterID"`
}

type wireName struct {
	Name string `json:"name"`
}

type wireZone struct {
	ID int `json:"id"`
}

type wireReport struct {
	Code             string          `json:"code"`
	StartTime        float64         `json:"startTime"`
	Zone             *wireZone       `json:"zone"`
	Fights           []wireFight     `json:"fights"`
	Players          []wireName      `json:"players"`
	RankedCharacters []wireName      `json:"rankedCharacters"`
	Table            json.RawMessage `json:"table"`
}

type reportData struct {
	ReportData *struct {
		Reports *listing[wireReport] `json:"reports"`
	} `json:"reportData"`
}

type guildData struct {
	GuildData *struct {
		Guild *struct {
			Attendance *listing[wireReport] `json:"attendance"`
		} `json:"guild"`
	} `json:"guildData"`
}

type deathTable struct {
	Data struct {
		Entries []deathEntry `json:"entries"`
	} `json:"data"`
}

type deathEntry struct {
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Fight  int    `json:"fight"`
	Damage struct {
		Abilities []json.RawMessage `json:"abilities"`
	} `json:"damage"`
	Events []json.RawMessage `json:"events"`
}

func (d reportData) listing() (*listing[wireReport], bool) {
	if d.ReportData == nil || d.ReportData.Reports == nil {
		return nil, false
	}
	return d.ReportData.Reports, true
}

func (d guildData) listing() (*listing[wireReport], bool) {
	if d.GuildData == nil || d.GuildData.Guild == nil || d.GuildData.Guild.Attendance == nil {
		return nil, false
	}
	return d.GuildData.Guild.Attendance, true
}

// toReport converts a wire record into the engine's typed report. The
// deaths shape only selects wipe fights, so every fight it returns is
// marked as a wipe.
func toReport(w wireReport, shape aggregate.Shape) (aggregate.Report, error) {
	if w.Code == "" {
		return aggregate.Report{}, fmt.Errorf("%w: report without code", ErrMalformedResponse)
	}

	r := aggregate.Report{
		ID:        w.Code,
		StartTime: int64(w.StartTime),
	}
	if w.Zone != nil {
		r.ZoneID = w.Zone.ID
	}

	for _, f := range w.Fights {
		r.Fights = append(r.Fights, aggregate.Fight{
			ID:          f.ID,
			EncounterID: f.EncounterID,
			IsWipe:      shape == aggregate.ShapeDeaths,
		})
	}

	names := w.Players
	if shape == aggregate.ShapeDeaths {
		names = w.RankedCharacters
	}
	for _, p := range names {
		r.Players = append(r.Players, aggregate.Player{Name: p.Name})
	}

	if shape == aggregate.ShapeDeaths {
		deaths, err := decodeDeaths(w.Table)
		if err != nil {
			return aggregate.Report{}, fmt.Errorf("report %s: %w", w.Code, err)
		}
		r.Deaths = deaths
	}

	return r, nil
}

func decodeDeaths(raw json.RawMessage) ([]aggregate.DeathEvent, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var table deathTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("%w: death table: %v", ErrMalformedResponse, err)
	}
	deaths := make([]aggregate.DeathEvent, 0, len(table.Data.Entries))
	for _, e := range table.Data.Entries {
		deaths = append(deaths, aggregate.DeathEvent{
			PlayerName:         e.Name,
			FightID:            e.Fight,
			Icon:               e.Icon,
			HasDamageAbilities: len(e.Damage.Abilities) > 0,
			HasEvents:          len(e.Events) > 0,
		})
	}
	return deaths, nil
}
