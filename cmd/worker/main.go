package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geocoder89/rfphub/internal/config"
	"github.com/geocoder89/rfphub/internal/db"
	"github.com/geocoder89/rfphub/internal/notifications"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/geocoder89/rfphub/internal/queue/worker"
	"github.com/geocoder89/rfphub/internal/repo/postgres"
	"github.com/geocoder89/rfphub/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "rfphub-worker"

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	shutdownTracer := observability.NoopShutdown
	if cfg.OTelEnabled {
		sd, err := observability.InitTracer(ctx, serviceName, cfg.OTelEndpoint)
		if err != nil {
			log.Error("otel init failed, tracing disabled", "err", err)
		} else {
			shutdownTracer = sd
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	jobsRepo := postgres.NewJobsRepo(pool, prom)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{
			Timeout:          2 * time.Second,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			HalfOpenMaxCalls: 1,
		},
	)

	handlers := worker.Handlers(worker.Deps{
		RFPs:       postgres.NewRFPsRepo(pool, prom, jobsRepo),
		Offers:     postgres.NewOffersRepo(pool, prom, jobsRepo),
		Users:      postgres.NewUsersRepo(pool, prom),
		Deliveries: postgres.NewNotificationDeliveriesRepo(pool, prom),
		Pools:      postgres.NewPoolsRepo(pool, prom),
		Notifier:   notifier,
		Logger:     log,
		Now:        time.Now,
	})

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval:  cfg.WorkerPollInterval,
		WorkerID:      workerID,
		Concurrency:   cfg.WorkerConcurrency,
		ShutdownGrace: 10 * time.Second,
	}, jobsRepo, handlers, prom, log)

	sched, err := scheduler.New(jobsRepo, cfg.SweepCron, log)
	if err != nil {
		log.Error("invalid sweep schedule", "cron", cfg.SweepCron, "err", err)
		os.Exit(1)
	}
	if err := sched.Start(ctx); err != nil {
		log.Error("scheduler start failed", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "worker_id", workerID, "concurrency", cfg.WorkerConcurrency)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	sctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	if err := healthSrv.Shutdown(sctx); err != nil {
		log.Error("health server shutdown failed", "err", err)
	}
	if err := shutdownTracer(sctx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}

	log.Info("worker shutdown complete")
}
