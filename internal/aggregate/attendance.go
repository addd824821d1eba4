package aggregate

import (
	"fmt"
	"iter"
	"math"
	"sort"
)

// AttendanceTally counts raid participation per player for one run.
type AttendanceTally struct {
	TotalRaids int
	players    *tally[int]
}

// CountAttendance reduces the qualifying reports into a raw, unfolded tally.
// Every player listed on a qualifying report gains one raid.
func CountAttendance(reports iter.Seq2[Report, error], f *ReportFilter) (*AttendanceTally, error) {
	t := &AttendanceTally{players: newTally[int]()}

	err := qualifying(reports, f, func(r Report) {
		t.TotalRaids++
		for _, p := range r.Players {
			*t.players.getOrCreate(p.Name)++
		}
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// Fold credits alias attendance to canonical names.
func (t *AttendanceTally) Fold(aliases AliasMap) {
	t.players.fold(aliases, func(dst *int, src int) { *dst += src })
}

// Counts returns a copy of the per-player counts.
func (t *AttendanceTally) Counts() map[string]int {
	out := make(map[string]int, t.players.len())
	t.players.each(func(name string, n int) { out[name] = n })
	return out
}

// Result converts the tally into percentages. It fails with
// ErrNoQualifyingRaids instead of dividing by zero.
func (t *AttendanceTally) Result() (*AttendanceResult, error) {
	if t.TotalRaids == 0 {
		return nil, ErrNoQualifyingRaids
	}

	entries := make([]AttendanceEntry, 0, t.players.len())
	t.players.each(func(name string, count int) {
		pct := int(math.RoundToEven(float64(count) / float64(t.TotalRaids) * 100))
		entry := AttendanceEntry{Name: name, Count: count, Percentage: pct}
		if pct > MaxPercentage {
			entry.Percentage = MaxPercentage
			entry.Clamped = true
		}
		entries = append(entries, entry)
	})

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	return &AttendanceResult{TotalRaids: t.TotalRaids, Entries: entries}, nil
}

// BuildAttendance runs the full attendance reduction: count, fold, percentages.
func BuildAttendance(reports iter.Seq2[Report, error], f *ReportFilter, aliases AliasMap) (*AttendanceResult, error) {
	// Step 1: Count participation over qualifying reports
	t, err := CountAttendance(reports, f)
	if err != nil {
		return nil, err
	}

	// Step 2: Credit alts to their mains
	t.Fold(aliases)

	// Step 3: Convert to clamped percentages
	return t.Result()
}

// Lines renders entries as "name: pct%".
func (r *AttendanceResult) Lines() []string {
	lines := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		lines = append(lines, fmt.Sprintf("%s: %d%%", e.Name, e.Percentage))
	}
	return lines
}

// Clamped returns the entries whose raw count exceeded the raid total.
func (r *AttendanceResult) Clamped() []AttendanceEntry {
	var out []AttendanceEntry
	for _, e := range r.Entries {
		if e.Clamped {
			out = append(out, e)
		}
	}
	return out
}
