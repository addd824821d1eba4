package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"raidstats/internal/aggregate"
	"raidstats/internal/render"
	"raidstats/internal/stats"
	"raidstats/internal/wcl"
)

type StatsRunner interface {
	Attendance(ctx context.Context, req stats.Request) (*aggregate.AttendanceResult, error)
	Mortality(ctx context.Context, req stats.Request) (*aggregate.MortalityResult, error)
}

type StatsHandler struct {
	runner StatsRunner
	labels render.Labels
}

func NewStatsHandler(runner StatsRunner, labels render.Labels) *StatsHandler {
	return &StatsHandler{runner: runner, labels: labels}
}

// NewApp builds the HTTP surface. gatherer may be nil to omit /metrics.
func NewApp(h *StatsHandler, gatherer prometheus.Gatherer) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/attendance", h.GetAttendance)
	app.Get("/deaths", h.GetDeaths)
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return app
}

// GetAttendance godoc
// @Summary Raid attendance
// @Description Attendance percentage per player with alts folded into mains
// @Tags Stats
// @Produce json
// @Param zone query int true "Zone id"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param encounter query int false "Encounter id"
// @Success 200 {object} AttendanceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /attendance [get]
func (h *StatsHandler) GetAttendance(c *fiber.Ctx) error {
	req, err := parseRequest(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Error: "invalid_request", Message: err.Error()})
	}

	res, err := h.runner.Attendance(c.Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	msg := render.Attendance(res, req, h.labels)
	resp := AttendanceResponse{
		Title:      msg.Title,
		Field:      msg.Field,
		TotalRaids: res.TotalRaids,
		Entries:    make([]AttendanceEntryResponse, 0, len(res.Entries)),
		Blocks:     msg.Blocks,
	}
	for _, e := range res.Entries {
		resp.Entries = append(resp.Entries, AttendanceEntryResponse{
			Name:       e.Name,
			Count:      e.Count,
			Percentage: e.Percentage,
			Clamped:    e.Clamped,
		})
	}

	return c.Status(http.StatusOK).JSON(resp)
}

// GetDeaths godoc
// @Summary Average deaths per raid
// @Description Deaths per raid for players seen in at least five reports
// @Tags Stats
// @Produce json
// @Param zone query int true "Zone id"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param encounter query int false "Encounter id"
// @Success 200 {object} MortalityResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /deaths [get]
func (h *StatsHandler) GetDeaths(c *fiber.Ctx) error {
	req, err := parseRequest(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Error: "invalid_request", Message: err.Error()})
	}

	res, err := h.runner.Mortality(c.Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	msg := render.Deaths(res, req, h.labels)
	resp := MortalityResponse{
		Title:   msg.Title,
		Field:   msg.Field,
		Reports: res.Reports,
		Entries: make([]MortalityEntryResponse, 0, len(res.Entries)),
		Blocks:  msg.Blocks,
	}
	for _, e := range res.Entries {
		resp.Entries = append(resp.Entries, MortalityEntryResponse{
			Name:        e.Name,
			ReportsSeen: e.ReportsSeen,
			Deaths:      e.Deaths,
			Average:     e.Average,
		})
	}

	return c.Status(http.StatusOK).JSON(resp)
}

var (
	errZoneRequired     = errors.New("zone is required")
	errInvalidZone      = errors.New("invalid 'zone' parameter")
	errInvalidEncounter = errors.New("invalid 'encounter' parameter")
)

func parseRequest(c *fiber.Ctx) (stats.Request, error) {
	zoneStr := c.Query("zone", "")
	if zoneStr == "" {
		return stats.Request{}, errZoneRequired
	}
	zone, err := strconv.Atoi(zoneStr)
	if err != nil {
		return stats.Request{}, errInvalidZone
	}

	var encounter int
	if s := c.Query("encounter", ""); s != "" {
		if encounter, err = strconv.Atoi(s); err != nil || encounter < 0 {
			return stats.Request{}, errInvalidEncounter
		}
	}

	return stats.Request{
		Zone:      zone,
		StartDate: c.Query("start_date", ""),
		EndDate:   c.Query("end_date", ""),
		Encounter: encounter,
	}, nil
}

func writeError(c *fiber.Ctx, err error) error {
	var queryErr *wcl.QueryError
	switch {
	case stats.IsBadRequest(err):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Error: "invalid_request", Message: render.ErrorText(err)})
	case errors.Is(err, aggregate.ErrNoQualifyingRaids):
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{Error: "no_qualifying_raids", Message: render.ErrorText(err)})
	case errors.Is(err, aggregate.ErrConnection),
		errors.As(err, &queryErr),
		errors.Is(err, wcl.ErrMalformedResponse):
		return c.Status(http.StatusBadGateway).JSON(ErrorResponse{Error: "upstream_error", Message: render.ErrorText(err)})
	default:
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{Error: "internal_server_error"})
	}
}
