package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/job"
	"github.com/geocoder89/rfphub/internal/jobs"
)

// ErrPermanent marks a failure that retrying cannot fix.
var ErrPermanent = errors.New("permanent job failure")

// ProcessOne claims and executes at most one job. It reports whether a job
// was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	w.metrics.IncClaimed()
	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()
	err = w.execute(ctx, j)
	elapsed := time.Since(start)
	w.metrics.ObserveDuration(elapsed)

	if err != nil {
		result := w.handleFailure(ctx, j, err)
		w.observe(j.Type, result, elapsed)
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		w.observe(j.Type, "failed", elapsed)
		return true, err
	}

	w.metrics.IncDone()
	w.observe(j.Type, "done", elapsed)
	w.logger.InfoContext(ctx, "job.done", "job_id", j.ID, "job_type", j.Type, "duration_ms", elapsed.Milliseconds())

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) (err error) {
	h, ok := w.handlers[jobs.JobType(j.Type)]
	if !ok {
		return fmt.Errorf("%w: no handler for %q", ErrPermanent, j.Type)
	}

	runCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return h(runCtx, j)
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrPermanent) ||
		errors.Is(err, jobs.ErrInvalidJobPayload) ||
		errors.Is(err, jobs.ErrInvalidJobType) ||
		errors.Is(err, jobs.ErrPayloadTypeMismatch)
}

// handleFailure reschedules with backoff or dead-letters, and returns the
// result label recorded in metrics.
func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error) string {
	w.metrics.IncFailed()
	msg := cause.Error()

	if isPermanent(cause) || j.Exhausted() {
		if err := w.repo.MarkFailed(ctx, j.ID, msg); err != nil {
			w.logger.ErrorContext(ctx, "job.mark_failed_error", "job_id", j.ID, "err", err)
		}
		w.metrics.IncDeadLettered()
		w.logger.ErrorContext(ctx, "job.dead_lettered", "job_id", j.ID, "job_type", j.Type, "attempts", j.Attempts+1, "err", msg)
		return "failed"
	}

	delay := ExponentialBackoff(j.Attempts)
	if err := w.repo.Reschedule(ctx, j.ID, time.Now().Add(delay), msg); err != nil {
		w.logger.ErrorContext(ctx, "job.reschedule_error", "job_id", j.ID, "err", err)
	}
	w.metrics.IncRetried()
	w.logger.WarnContext(ctx, "job.retry_scheduled", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1, "delay", delay.String(), "err", msg)
	return "retry"
}

func (w *Worker) observe(jobType, result string, d time.Duration) {
	if w.prom == nil {
		return
	}
	w.prom.JobResults.WithLabelValues(jobType, result).Inc()
	w.prom.JobDuration.WithLabelValues(jobType, result).Observe(d.Seconds())
}
