package aggregate

import (
	"fmt"
	"iter"
	"sort"
)

// MortalityTally counts reports seen and qualifying deaths per player for one run.
type MortalityTally struct {
	Reports int
	players *tally[MortalityCount]
}

// CountDeaths reduces the qualifying reports into per-player counters.
// Deaths during wipes and spirit-form duplicates are not counted.
func CountDeaths(reports iter.Seq2[Report, error], f *ReportFilter) (*MortalityTally, error) {
	t := &MortalityTally{players: newTally[MortalityCount]()}

	err := qualifying(reports, f, func(r Report) {
		t.Reports++

		wipes := wipeFights(r.Fights)

		for _, p := range r.Players {
			t.players.getOrCreate(p.Name).ReportsSeen++
		}

		for _, d := range r.Deaths {
			if !CountsAsDeath(d, wipes) {
				continue
			}
			// A death for a character missing from the ranked list still
			// registers the player; the sample-size rule drops them later.
			t.players.getOrCreate(d.PlayerName).Deaths++
		}
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// CountsAsDeath reports whether d counts toward a player's deaths given the
// report's wipe fight ids.
func CountsAsDeath(d DeathEvent, wipes map[int]struct{}) bool {
	if _, wipe := wipes[d.FightID]; wipe {
		return false
	}
	if IsSpiritFormDuplicate(d) {
		return false
	}
	return true
}

// IsSpiritFormDuplicate matches the double death a holy priest logs when
// entering spirit form.
func IsSpiritFormDuplicate(d DeathEvent) bool {
	return d.Icon == SpiritFormIcon && d.HasDamageAbilities && d.HasEvents
}

func wipeFights(fights []Fight) map[int]struct{} {
	wipes := make(map[int]struct{})
	for _, f := range fights {
		if f.IsWipe {
			wipes[f.ID] = struct{}{}
		}
	}
	return wipes
}

// Fold credits alias counters to canonical names.
func (t *MortalityTally) Fold(aliases AliasMap) {
	t.players.fold(aliases, func(dst *MortalityCount, src MortalityCount) {
		dst.ReportsSeen += src.ReportsSeen
		dst.Deaths += src.Deaths
	})
}

// Counts returns a copy of the per-player counters.
func (t *MortalityTally) Counts() map[string]MortalityCount {
	out := make(map[string]MortalityCount, t.players.len())
	t.players.each(func(name string, c MortalityCount) { out[name] = c })
	return out
}

// Result keeps players seen in at least minReports reports and computes
// their average deaths per raid.
func (t *MortalityTally) Result(minReports int) *MortalityResult {
	res := &MortalityResult{Reports: t.Reports}

	t.players.each(func(name string, c MortalityCount) {
		if c.ReportsSeen < minReports {
			return
		}
		var avg float64
		if c.ReportsSeen > 0 {
			avg = float64(c.Deaths) / float64(c.ReportsSeen)
		}
		res.Entries = append(res.Entries, MortalityEntry{
			Name:        name,
			ReportsSeen: c.ReportsSeen,
			Deaths:      c.Deaths,
			Average:     avg,
		})
	})

	sort.SliceStable(res.Entries, func(i, j int) bool {
		return res.Entries[i].Average > res.Entries[j].Average
	})

	return res
}

// BuildMortality runs the full mortality reduction. Aliases are folded only
// when foldAliases is set.
func BuildMortality(reports iter.Seq2[Report, error], f *ReportFilter, aliases AliasMap, foldAliases bool) (*MortalityResult, error) {
	// Step 1: Count reports seen and qualifying deaths
	t, err := CountDeaths(reports, f)
	if err != nil {
		return nil, err
	}

	// Step 2: Optionally credit alts to their mains
	if foldAliases {
		t.Fold(aliases)
	}

	// Step 3: Drop small samples and average the rest
	return t.Result(MinReportsSeen), nil
}

// Averages returns the name to average mapping.
func (r *MortalityResult) Averages() map[string]float64 {
	out := make(map[string]float64, len(r.Entries))
	for _, e := range r.Entries {
		out[e.Name] = e.Average
	}
	return out
}

// Lines renders entries as "name: avg" with one decimal.
func (r *MortalityResult) Lines() []string {
	lines := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		lines = append(lines, fmt.Sprintf("%s: %.1f", e.Name, e.Average))
	}
	return lines
}
