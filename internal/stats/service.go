package stats

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"raidstats/internal/aggregate"
	"raidstats/internal/logging"
	"raidstats/internal/metrics"
)

// Command names shared by the queue and HTTP surfaces.
const (
	CommandAttendance = "attendance"
	CommandDeaths     = "deaths"
)

// ErrUnknownZone is returned for a zone the guild catalog does not offer.
var ErrUnknownZone = errors.New("unknown zone")

// ReportFetcher yields typed reports for one query shape, page by page.
type ReportFetcher interface {
	Reports(ctx context.Context, q aggregate.ReportQuery) iter.Seq2[aggregate.Report, error]
}

// Catalog is the subset of the guild catalog a run needs.
type Catalog interface {
	ZoneName(id int) (string, bool)
	Aliases() aggregate.AliasMap
}

// Request is one user command. Dates are optional YYYY-MM-DD strings and
// Encounter is 0 when absent.
type Request struct {
	Zone      int
	StartDate string
	EndDate   string
	Encounter int
}

// Service runs attendance and mortality computations. Runs share no
// mutable state and may execute concurrently.
type Service struct {
	fetcher       ReportFetcher
	catalog       Catalog
	recorder      metrics.Recorder
	foldMortality bool
}

// NewService builds a Service. A nil recorder disables metrics.
func NewService(fetcher ReportFetcher, catalog Catalog, recorder metrics.Recorder, foldMortality bool) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		fetcher:       fetcher,
		catalog:       catalog,
		recorder:      recorder,
		foldMortality: foldMortality,
	}
}

// Attendance computes folded attendance percentages for req.
func (s *Service) Attendance(ctx context.Context, req Request) (res *aggregate.AttendanceResult, err error) {
	defer s.finish(CommandAttendance, time.Now(), &err)

	window, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	relevant, err := s.relevant(ctx, req)
	if err != nil {
		return nil, err
	}

	reports := s.fetcher.Reports(ctx, aggregate.ReportQuery{Shape: aggregate.ShapeAttendance, Zone: req.Zone})
	res, err = aggregate.BuildAttendance(reports, aggregate.NewReportFilter(window, relevant), s.catalog.Aliases())
	if err != nil {
		return nil, fmt.Errorf("build attendance: %w", err)
	}

	if clamped := res.Clamped(); len(clamped) > 0 {
		logger := logging.Logger()
		for _, e := range clamped {
			logger.Warnf("attendance for %s clamped to %d%% (%d of %d raids)", e.Name, e.Percentage, e.Count, res.TotalRaids)
		}
		s.recorder.PercentageClamped(len(clamped))
	}

	return res, nil
}

// Mortality computes average deaths per raid for req.
func (s *Service) Mortality(ctx context.Context, req Request) (res *aggregate.MortalityResult, err error) {
	defer s.finish(CommandDeaths, time.Now(), &err)

	window, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	relevant, err := s.relevant(ctx, req)
	if err != nil {
		return nil, err
	}

	reports := s.fetcher.Reports(ctx, aggregate.ReportQuery{Shape: aggregate.ShapeDeaths, Zone: req.Zone, Window: window})
	res, err = aggregate.BuildMortality(reports, aggregate.NewReportFilter(window, relevant), s.catalog.Aliases(), s.foldMortality)
	if err != nil {
		return nil, fmt.Errorf("build mortality: %w", err)
	}
	return res, nil
}

func (s *Service) prepare(req Request) (aggregate.TimeWindow, error) {
	if _, ok := s.catalog.ZoneName(req.Zone); !ok {
		return aggregate.TimeWindow{}, fmt.Errorf("%w: %d", ErrUnknownZone, req.Zone)
	}
	return aggregate.ResolveWindow(req.StartDate, req.EndDate)
}

// relevant returns nil when no encounter restriction applies.
func (s *Service) relevant(ctx context.Context, req Request) (aggregate.ReportSet, error) {
	if req.Encounter == 0 {
		return nil, nil
	}
	reports := s.fetcher.Reports(ctx, aggregate.ReportQuery{
		Shape:     aggregate.ShapeEncounter,
		Zone:      req.Zone,
		Encounter: req.Encounter,
	})
	set, err := aggregate.RelevantReports(reports, req.Encounter)
	if err != nil {
		return nil, fmt.Errorf("find encounter reports: %w", err)
	}
	return set, nil
}

func (s *Service) finish(command string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	outcome := Outcome(*errp)
	s.recorder.RunFinished(command, outcome, elapsed)
	logging.Logger().Debugf("%s run finished: outcome=%s elapsed=%v", command, outcome, elapsed)
}

// Outcome classifies a run error into a metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, aggregate.ErrNoQualifyingRaids):
		return metrics.OutcomeNoRaids
	case IsBadRequest(err):
		return metrics.OutcomeBadRequest
	default:
		return metrics.OutcomeUpstreamErr
	}
}

// IsBadRequest reports whether err was caused by the caller's input.
func IsBadRequest(err error) bool {
	return errors.Is(err, aggregate.ErrInvalidDateFormat) || errors.Is(err, ErrUnknownZone)
}
