package aggregate

import (
	"fmt"
	"iter"
)

// seq yields reports in order, as a fetcher would after decoding every page.
func seq(reports ...Report) iter.Seq2[Report, error] {
	return func(yield func(Report, error) bool) {
		for _, r := range reports {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// failingSeq yields reports and then a fetch error.
func failingSeq(err error, reports ...Report) iter.Seq2[Report, error] {
	return func(yield func(Report, error) bool) {
		for _, r := range reports {
			if !yield(r, nil) {
				return
			}
		}
		yield(Report{}, err)
	}
}

func players(names ...string) []Player {
	out := make([]Player, 0, len(names))
	for _, n := range names {
		out = append(out, Player{Name: n})
	}
	return out
}

func raid(id string, start int64, names ...string) Report {
	return Report{ID: id, StartTime: start, ZoneID: 1011, Players: players(names...)}
}

// deathReports builds n reports that all list name as a ranked character.
func deathReports(n int, name string) []Report {
	out := make([]Report, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Report{
			ID:        fmt.Sprintf("r%d", i),
			StartTime: int64(i + 1),
			Players:   players(name),
		})
	}
	return out
}
