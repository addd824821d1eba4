package wcl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"raidstats/internal/aggregate"
)

// TokenSource supplies the Authorization header value for each request.
type TokenSource interface {
	Authorization(ctx context.Context) (string, error)
}

// Config configures a Client.
type Config struct {
	Endpoint   string
	GuildID    int
	TagID      int           // 0 disables the guild tag restriction
	RateLimit  float64       // requests per second; <= 0 means unlimited
	Timeout    time.Duration // per request; ignored when HTTPClient is set
	HTTPClient *http.Client

	// OnPage, when set, is called after every successfully fetched page.
	OnPage func(shape aggregate.Shape)
}

// Client fetches paginated report listings from the analytics GraphQL API.
// It is safe for concurrent use; all runs share one limiter.
type Client struct {
	endpoint string
	guildID  int
	tagID    int
	http     *http.Client
	tokens   TokenSource
	limiter  *rate.Limiter
	tracer   trace.Tracer
	onPage   func(aggregate.Shape)
}

// New builds a Client.
func New(cfg Config, tokens TokenSource) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Client{
		endpoint: cfg.Endpoint,
		guildID:  cfg.GuildID,
		tagID:    cfg.TagID,
		http:     httpClient,
		tokens:   tokens,
		limiter:  rate.NewLimiter(limit, 1),
		tracer:   otel.Tracer("wcl-client"),
		onPage:   cfg.OnPage,
	}
}

// Reports returns a lazy sequence over every report of the query's shape.
// Pages are fetched one at a time as the sequence is consumed; the first
// failing page ends the sequence with its error.
func (c *Client) Reports(ctx context.Context, q aggregate.ReportQuery) iter.Seq2[aggregate.Report, error] {
	switch q.Shape {
	case aggregate.ShapeEncounter:
		vars := c.baseVars(q.Zone, reportPageLimit)
		vars["encounter"] = q.Encounter
		return paginate(ctx, func(ctx context.Context, page int) ([]aggregate.Report, bool, error) {
			return fetchPage[reportData](ctx, c, q.Shape, page, encounterQuery, vars)
		})
	case aggregate.ShapeAttendance:
		vars := c.baseVars(q.Zone, attendancePageLimit)
		return paginate(ctx, func(ctx context.Context, page int) ([]aggregate.Report, bool, error) {
			return fetchPage[guildData](ctx, c, q.Shape, page, attendanceQuery, vars)
		})
	case aggregate.ShapeDeaths:
		vars := c.baseVars(q.Zone, reportPageLimit)
		vars["start"] = q.Window.Start
		if q.Window.IsBounded() {
			vars["end"] = q.Window.End
		}
		return paginate(ctx, func(ctx context.Context, page int) ([]aggregate.Report, bool, error) {
			return fetchPage[reportData](ctx, c, q.Shape, page, deathsQuery, vars)
		})
	default:
		return func(yield func(aggregate.Report, error) bool) {
			yield(aggregate.Report{}, fmt.Errorf("unknown report shape %d", q.Shape))
		}
	}
}

func (c *Client) baseVars(zone, limit int) map[string]any {
	vars := map[string]any{
		"zone":  zone,
		"guild": c.guildID,
		"limit": limit,
	}
	if c.tagID != 0 {
		vars["tag"] = c.tagID
	}
	return vars
}

type pageLister interface {
	reportData | guildData
	listing() (*listing[wireReport], bool)
}

// fetchPage runs one page of a query and converts its records.
func fetchPage[T pageLister](ctx context.Context, c *Client, shape aggregate.Shape, page int, query string, base map[string]any) ([]aggregate.Report, bool, error) {
	ctx, span := c.tracer.Start(ctx, "wcl.FetchPage", trace.WithAttributes(
		attribute.String("wcl.shape", shape.String()),
		attribute.Int("wcl.page", page),
	))
	defer span.End()

	reports, more, err := c.doPage(ctx, shape, page, query, base, func(body []byte) (*listing[wireReport], error) {
		var resp graphQLResponse[T]
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if len(resp.Errors) > 0 {
			msgs := make([]string, 0, len(resp.Errors))
			for _, e := range resp.Errors {
				msgs = append(msgs, e.Message)
			}
			return nil, &QueryError{Page: page, Messages: msgs}
		}
		if resp.Data == nil {
			return nil, fmt.Errorf("%w: page %d has no data", ErrMalformedResponse, page)
		}
		l, ok := (*resp.Data).listing()
		if !ok {
			return nil, fmt.Errorf("%w: page %d has no %s listing", ErrMalformedResponse, page, shape)
		}
		return l, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}

	span.SetAttributes(attribute.Int("wcl.reports", len(reports)), attribute.Bool("wcl.has_more_pages", more))
	span.SetStatus(codes.Ok, "page fetched")
	if c.onPage != nil {
		c.onPage(shape)
	}
	return reports, more, nil
}

func (c *Client) doPage(ctx context.Context, shape aggregate.Shape, page int, query string, base map[string]any, decode func([]byte) (*listing[wireReport], error)) ([]aggregate.Report, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, &ConnectionError{Page: page, Err: err}
	}

	vars := make(map[string]any, len(base)+1)
	for k, v := range base {
		vars[k] = v
	}
	vars["page"] = page

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, false, fmt.Errorf("encode query: %w", err)
	}

	auth, err := c.tokens.Authorization(ctx)
	if err != nil {
		return nil, false, &ConnectionError{Page: page, Err: fmt.Errorf("acquire token: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", auth)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, &ConnectionError{Page: page, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &ConnectionError{Page: page, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, &ConnectionError{Page: page, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	l, err := decode(payload)
	if err != nil {
		return nil, false, err
	}

	reports := make([]aggregate.Report, 0, len(l.Data))
	for _, w := range l.Data {
		r, err := toReport(w, shape)
		if err != nil {
			return nil, false, fmt.Errorf("page %d: %w", page, err)
		}
		reports = append(reports, r)
	}
	return reports, l.HasMorePages, nil
}
