package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/job"
	"github.com/geocoder89/rfphub/internal/jobs"
	"github.com/robfig/cron/v3"
)

const slotLayout = "200601021504"

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Enqueuer is the slice of the jobs repository the scheduler needs.
type Enqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

// Scheduler enqueues the sweep jobs on a cron schedule. Each slot maps to a
// fixed idempotency key, so several schedulers racing on the same slot
// produce one job per type.
type Scheduler struct {
	jobs   Enqueuer
	spec   string
	logger *slog.Logger
	now    func() time.Time

	cron *cron.Cron
}

func New(jobsRepo Enqueuer, spec string, logger *slog.Logger) (*Scheduler, error) {
	if err := ValidateCronExpr(spec); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		jobs:   jobsRepo,
		spec:   spec,
		logger: logger,
		now:    time.Now,
	}, nil
}

func ValidateCronExpr(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// SlotKey is the idempotency key for one sweep type in one cron slot.
func SlotKey(t jobs.JobType, slot time.Time) string {
	return string(t) + ":" + slot.UTC().Format(slotLayout)
}

// Tick enqueues one job per sweep type for the slot containing now.
func (s *Scheduler) Tick(ctx context.Context) error {
	slot := s.now().UTC().Truncate(time.Minute)

	var firstErr error
	for _, t := range []jobs.JobType{jobs.JobPoolsExpire, jobs.JobRFPsExpire} {
		req, err := jobs.NewCreateRequest(t, jobs.SweepPayload{Slot: slot}, SlotKey(t, slot))
		if err != nil {
			return err
		}
		req.MaxAttempts = 3

		j, err := s.jobs.Create(ctx, req)
		if err != nil {
			s.logger.ErrorContext(ctx, "scheduler.enqueue_failed", "type", t, "slot", slot, "err", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("enqueue %s: %w", t, err)
			}
			continue
		}

		s.logger.InfoContext(ctx, "scheduler.enqueued", "type", t, "job_id", j.ID, "slot", slot)
	}

	return firstErr
}

// Start registers Tick with a cron runner. Stop the returned context's
// parent, or call Stop, to end it.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.spec, func() {
		tctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		_ = s.Tick(tctx)
	})
	if err != nil {
		return fmt.Errorf("schedule sweeps: %w", err)
	}

	s.cron = c
	c.Start()
	s.logger.Info("scheduler.started", "cron", s.spec)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the runner and waits for a running tick to return.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
