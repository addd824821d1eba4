package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"raidstats/internal/aggregate"
	"raidstats/internal/logging"
	"raidstats/internal/queue"
	"raidstats/internal/render"
	"raidstats/internal/stats"
)

// JobPayload represents the incoming job from the Redis queue.
type JobPayload struct {
	RequestID string `json:"request_id"`
	Command   string `json:"command"`
	Zone      int    `json:"zone"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Encounter int    `json:"encounter,omitempty"`
	ReplyTo   string `json:"reply_to"`
}

// ReplyPayload is pushed to the job's reply list. Exactly one of Result
// and Error is set.
type ReplyPayload struct {
	RequestID string          `json:"request_id"`
	Result    *render.Message `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// StatsRunner computes results for a request.
type StatsRunner interface {
	Attendance(ctx context.Context, req stats.Request) (*aggregate.AttendanceResult, error)
	Mortality(ctx context.Context, req stats.Request) (*aggregate.MortalityResult, error)
}

// Replier delivers a reply to a named list.
type Replier interface {
	Reply(ctx context.Context, key string, payload []byte) error
}

// StatsProcessor handles stats request jobs.
type StatsProcessor struct {
	ctx     context.Context
	runner  StatsRunner
	labels  render.Labels
	replier Replier
}

// NewStatsProcessor creates a processor that answers jobs through replier.
func NewStatsProcessor(ctx context.Context, runner StatsRunner, labels render.Labels, replier Replier) *StatsProcessor {
	return &StatsProcessor{
		ctx:     ctx,
		runner:  runner,
		labels:  labels,
		replier: replier,
	}
}

// Handle processes a single stats job from the queue. A failed run is
// answered with an error reply; only malformed payloads and undeliverable
// replies return an error.
func (p *StatsProcessor) Handle(payload []byte) error {
	startTime := time.Now()

	// Parse job payload
	job, err := parseJob(payload)
	if err != nil {
		return err
	}

	logger := logging.Request(job.RequestID)
	logger.Infof("processing %s job for zone %d (encounter %d, %q..%q)",
		job.Command, job.Zone, job.Encounter, job.StartDate, job.EndDate)

	req := stats.Request{
		Zone:      job.Zone,
		StartDate: job.StartDate,
		EndDate:   job.EndDate,
		Encounter: job.Encounter,
	}

	// Run the command; any failure replaces the whole result
	reply := ReplyPayload{RequestID: job.RequestID}
	msg, err := p.run(job.Command, req)
	if err != nil {
		logger.Warnf("%s job failed: %v", job.Command, err)
		reply.Error = render.ErrorText(err)
	} else {
		reply.Result = &msg
	}

	body, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	if err := p.replier.Reply(p.ctx, job.ReplyTo, body); err != nil {
		return fmt.Errorf("push reply: %w", err)
	}

	logger.Infof("%s job completed in %v", job.Command, time.Since(startTime))
	return nil
}

func (p *StatsProcessor) run(command string, req stats.Request) (render.Message, error) {
	switch command {
	case stats.CommandAttendance:
		res, err := p.runner.Attendance(p.ctx, req)
		if err != nil {
			return render.Message{}, err
		}
		return render.Attendance(res, req, p.labels), nil
	default:
		res, err := p.runner.Mortality(p.ctx, req)
		if err != nil {
			return render.Message{}, err
		}
		return render.Deaths(res, req, p.labels), nil
	}
}

// parseJob decodes and checks a payload. Jobs without a request id get one.
func parseJob(payload []byte) (JobPayload, error) {
	var job JobPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return job, fmt.Errorf("%w: unmarshal job payload: %v", queue.ErrMalformedJob, err)
	}

	if job.RequestID == "" {
		job.RequestID = uuid.NewString()
	} else if _, err := uuid.Parse(job.RequestID); err != nil {
		return job, fmt.Errorf("%w: parse request_id: %v", queue.ErrMalformedJob, err)
	}

	if job.ReplyTo == "" {
		return job, fmt.Errorf("%w: reply_to is required", queue.ErrMalformedJob)
	}

	switch job.Command {
	case stats.CommandAttendance, stats.CommandDeaths:
	default:
		return job, fmt.Errorf("%w: unknown command %q", queue.ErrMalformedJob, job.Command)
	}

	return job, nil
}
