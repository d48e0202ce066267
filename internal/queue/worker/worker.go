package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/job"
	"github.com/geocoder89/rfphub/internal/jobs"
	"github.com/geocoder89/rfphub/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

// HandlerFunc executes one claimed job. Returning nil marks it done.
type HandlerFunc func(ctx context.Context, j job.Job) error

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ShutdownGrace time.Duration
	JobTimeout    time.Duration
	LockTTL       time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	handlers map[jobs.JobType]HandlerFunc
	logger   *slog.Logger

	metrics *observability.JobMetrics
	prom    *observability.Prom

	ready atomic.Bool
}

func New(cfg Config, repo JobsRepository, handlers map[jobs.JobType]HandlerFunc, prom *observability.Prom, logger *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	if cfg.WorkerID == "" {
		cfg.WorkerID = "worker"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		handlers: handlers,
		logger:   logger.With("worker_id", cfg.WorkerID),
		metrics:  observability.NewJobMetrics(),
		prom:     prom,
	}
}

func (w *Worker) Metrics() *observability.JobMetrics { return w.metrics }

func (w *Worker) Ready() bool { return w.ready.Load() }

// Run polls until ctx is cancelled, then waits up to ShutdownGrace for
// running jobs to finish.
func (w *Worker) Run(ctx context.Context) error {
	w.requeueStale(ctx)

	// jobs keep running after ctx is cancelled; jobCtx is cut when the grace expires
	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx, jobCtx)
		}()
	}

	w.ready.Store(true)
	w.logger.Info("worker.started", "concurrency", w.cfg.Concurrency)

	<-ctx.Done()
	w.ready.Store(false)
	w.logger.Info("worker.draining", "grace", w.cfg.ShutdownGrace.String())

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.cfg.ShutdownGrace):
		w.logger.Warn("worker.grace_expired")
		cancelJobs()
		<-done
	}

	return nil
}

func (w *Worker) loop(stop, jobCtx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	staleEvery := time.NewTicker(w.cfg.LockTTL)
	defer staleEvery.Stop()

	for {
		select {
		case <-stop.Done():
			return
		case <-staleEvery.C:
			w.requeueStale(stop)
		case <-ticker.C:
			// drain the queue before sleeping again
			for stop.Err() == nil {
				processed, err := w.ProcessOne(jobCtx)
				if err != nil {
					w.logger.Error("worker.process_error", "err", err)
				}
				if !processed {
					break
				}
			}
		}
	}
}

func (w *Worker) requeueStale(ctx context.Context) {
	n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)
	if err != nil {
		w.logger.Error("worker.requeue_stale_failed", "err", err)
		return
	}
	if n > 0 {
		w.logger.Warn("worker.requeued_stale", "count", n)
	}
}
