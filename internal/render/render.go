// Package render turns computed stats into paginated chat display blocks.
package render

import (
	"errors"
	"fmt"
	"strconv"

	"raidstats/internal/aggregate"
	"raidstats/internal/stats"
)

// MaxLinesPerBlock is the most entries shown in a single display block.
const MaxLinesPerBlock = 15

// Titles of the two result messages.
const (
	TitleAttendance = "Attendance"
	TitleDeaths     = "Deaths"
)

// Labels resolves display names for numeric ids.
type Labels interface {
	ZoneName(id int) (string, bool)
	EncounterName(id int) (string, bool)
}

// Message is a rendered result: a title, a field heading, and the result
// lines split into blocks of at most MaxLinesPerBlock.
type Message struct {
	Title  string     `json:"title"`
	Field  string     `json:"field"`
	Blocks [][]string `json:"blocks"`
}

// Attendance renders an attendance result.
func Attendance(res *aggregate.AttendanceResult, req stats.Request, labels Labels) Message {
	return Message{
		Title:  TitleAttendance,
		Field:  FieldName(req, labels),
		Blocks: Blocks(res.Lines(), MaxLinesPerBlock),
	}
}

// Deaths renders a mortality result.
func Deaths(res *aggregate.MortalityResult, req stats.Request, labels Labels) Message {
	return Message{
		Title:  TitleDeaths,
		Field:  FieldName(req, labels),
		Blocks: Blocks(res.Lines(), MaxLinesPerBlock),
	}
}

// FieldName is the encounter label when an encounter was chosen, otherwise
// the zone label, followed by the requested date range. Ids without a
// label are shown as numbers.
func FieldName(req stats.Request, labels Labels) string {
	var name string
	if req.Encounter != 0 {
		name = label(labels.EncounterName, req.Encounter)
	} else {
		name = label(labels.ZoneName, req.Zone)
	}
	return fmt.Sprintf("%s (%s-%s)", name, req.StartDate, req.EndDate)
}

func label(lookup func(int) (string, bool), id int) string {
	if name, ok := lookup(id); ok {
		return name
	}
	return strconv.Itoa(id)
}

// Blocks splits lines into consecutive chunks of at most size lines.
// An empty input yields a single empty block.
func Blocks(lines []string, size int) [][]string {
	if size <= 0 {
		size = MaxLinesPerBlock
	}
	if len(lines) == 0 {
		return [][]string{{}}
	}
	blocks := make([][]string, 0, (len(lines)+size-1)/size)
	for start := 0; start < len(lines); start += size {
		end := min(start+size, len(lines))
		blocks = append(blocks, lines[start:end])
	}
	return blocks
}

// ErrorText is the user-facing message that replaces a failed run.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, aggregate.ErrNoQualifyingRaids):
		return "No qualifying raids found for this selection."
	case errors.Is(err, aggregate.ErrInvalidDateFormat):
		return "Invalid date, expected YYYY-MM-DD."
	case errors.Is(err, stats.ErrUnknownZone):
		return "Unknown zone."
	case errors.Is(err, aggregate.ErrConnection):
		return "Could not reach Warcraft Logs, please try again later."
	default:
		return "Failed to compute stats."
	}
}
