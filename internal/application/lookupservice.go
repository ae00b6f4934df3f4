package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/realyou/internal/domain/model"
	"github.com/ericfisherdev/realyou/internal/domain/port/driven"
)

// Phase names a waiting period of the poll loop, for progress reporting.
type Phase string

const (
	PhaseChecking   Phase = "Checking status"
	PhaseFinalizing Phase = "Finalizing"
)

// ProgressFunc is called after each elapsed step of a waiting phase.
type ProgressFunc func(phase Phase, step, total int)

// Schedule is the fixed wait pattern of the poll loop. Each poll is preceded
// by PollSteps steps; once the job reports finished, SettleSteps more steps
// elapse before the final fetch because the service reports completion
// slightly before the result data is available.
type Schedule struct {
	PollSteps   int
	SettleSteps int
	Step        time.Duration
}

// DefaultSchedule waits 10s between polls and 20s before the final fetch.
func DefaultSchedule() Schedule {
	return Schedule{PollSteps: 10, SettleSteps: 20, Step: time.Second}
}

// Lookup is the outcome of a completed lookup.
type Lookup struct {
	Job   model.LookupJob
	Raw   model.Value
	Facts model.Facts
}

// LookupService submits phone lookups and waits for their results.
type LookupService struct {
	api      driven.IdentityAPI
	schedule Schedule
	progress ProgressFunc
}

// NewLookupService creates a new LookupService. progress may be nil.
func NewLookupService(api driven.IdentityAPI, schedule Schedule, progress ProgressFunc) *LookupService {
	if progress == nil {
		progress = func(Phase, int, int) {}
	}
	return &LookupService{
		api:      api,
		schedule: schedule,
		progress: progress,
	}
}

// Submit validates phone and creates a remote lookup job. An invalid phone
// number is rejected before any network call. A "package required" response
// returns an error wrapping driven.ErrPackageRequired and no job.
func (s *LookupService) Submit(ctx context.Context, apiKey, phone string, mode model.InfoMode) (model.LookupJob, error) {
	if err := model.ValidatePhone(phone); err != nil {
		return model.LookupJob{}, err
	}

	id, err := s.api.SubmitPhoneLookup(ctx, apiKey, phone)
	if err != nil {
		return model.LookupJob{}, fmt.Errorf("submit lookup: %w", err)
	}

	slog.Info("lookup submitted", "job_id", id, "mode", mode)
	return model.LookupJob{ID: id, Phone: phone, Mode: mode}, nil
}

// Await polls the job until it finishes and returns the data of the final
// fetch. There is no retry limit or overall timeout: the loop runs until the
// job reaches a terminal status, a call fails, or ctx is canceled. Callers
// that want a bound wrap ctx with a deadline.
func (s *LookupService) Await(ctx context.Context, apiKey string, job model.LookupJob) (model.Value, error) {
	start := time.Now()

	for attempt := 1; ; attempt++ {
		if err := s.wait(ctx, PhaseChecking, s.schedule.PollSteps); err != nil {
			return model.Value{}, err
		}

		st, err := s.api.LookupStatus(ctx, apiKey, job.ID)
		if err != nil {
			return model.Value{}, fmt.Errorf("poll job %s: %w", job.ID, err)
		}

		slog.Debug("job polled", "job_id", job.ID, "attempt", attempt, "status", st.Status)

		switch {
		case st.Status.IsFinished():
			return s.settle(ctx, apiKey, job, attempt, start)
		case st.Status.IsFailed():
			return model.Value{}, fmt.Errorf("%w: job %s reported status %q", driven.ErrJobFailed, job.ID, st.Status)
		}
	}
}

// settle waits out the settle period and issues the single final fetch.
func (s *LookupService) settle(ctx context.Context, apiKey string, job model.LookupJob, polls int, start time.Time) (model.Value, error) {
	if err := s.wait(ctx, PhaseFinalizing, s.schedule.SettleSteps); err != nil {
		return model.Value{}, err
	}

	final, err := s.api.LookupStatus(ctx, apiKey, job.ID)
	if err != nil {
		return model.Value{}, fmt.Errorf("fetch result of job %s: %w", job.ID, err)
	}

	slog.Info("lookup complete",
		"job_id", job.ID,
		"polls", polls,
		"duration", time.Since(start).Round(time.Second),
	)
	return final.Data, nil
}

// Run submits a lookup, waits for it, and normalizes the result.
func (s *LookupService) Run(ctx context.Context, apiKey, phone string, mode model.InfoMode) (*Lookup, error) {
	job, err := s.Submit(ctx, apiKey, phone, mode)
	if err != nil {
		return nil, err
	}

	raw, err := s.Await(ctx, apiKey, job)
	if err != nil {
		return nil, err
	}

	facts, err := Normalize(raw, mode)
	if err != nil {
		return nil, err
	}

	return &Lookup{Job: job, Raw: raw, Facts: facts}, nil
}

// wait sleeps for steps × Step, reporting progress after each step.
func (s *LookupService) wait(ctx context.Context, phase Phase, steps int) error {
	for i := 1; i <= steps; i++ {
		timer := time.NewTimer(s.schedule.Step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		s.progress(phase, i, steps)
	}
	return nil
}
