package aggregate

import "iter"

// ReportSet is a set of report ids.
type ReportSet map[string]struct{}

// Has reports whether id is in the set.
func (s ReportSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// ReportFilter decides which reports qualify for one aggregation run.
// Relevant restricts reports to an encounter's set when non-nil.
type ReportFilter struct {
	Window   TimeWindow
	Relevant ReportSet

	seen map[string]struct{}
}

// NewReportFilter builds a filter for window, optionally narrowed to relevant.
func NewReportFilter(window TimeWindow, relevant ReportSet) *ReportFilter {
	return &ReportFilter{
		Window:   window,
		Relevant: relevant,
		seen:     make(map[string]struct{}),
	}
}

// Admit reports whether r qualifies. A report id is admitted at most once.
func (f *ReportFilter) Admit(r Report) bool {
	if !f.Window.Contains(r.StartTime) {
		return false
	}
	if f.Relevant != nil && !f.Relevant.Has(r.ID) {
		return false
	}
	if _, dup := f.seen[r.ID]; dup {
		return false
	}
	f.seen[r.ID] = struct{}{}
	return true
}

// qualifying walks reports and yields those f admits, stopping at the first
// fetch error.
func qualifying(reports iter.Seq2[Report, error], f *ReportFilter, fn func(Report)) error {
	for r, err := range reports {
		if err != nil {
			return err
		}
		if f.Admit(r) {
			fn(r)
		}
	}
	return nil
}
