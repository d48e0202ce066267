package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/rfphub/internal/config"
	"github.com/geocoder89/rfphub/internal/db"
	"github.com/geocoder89/rfphub/internal/events"
	httpx "github.com/geocoder89/rfphub/internal/http"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/geocoder89/rfphub/internal/queue/redisclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "rfphub-api"

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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

	opts := httpx.Options{Prom: prom, Gatherer: reg}

	redisCfg := redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	if redisCfg.Enabled() {
		rc := redisclient.New(redisCfg)
		defer rc.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, concierge history stays in memory", "addr", cfg.RedisAddr, "err", err)
		} else {
			opts.Redis = rc
		}
		cancel()
	}

	if cfg.AMQPURL != "" {
		conn, err := events.Dial(cfg.AMQPURL, log)
		if err != nil {
			log.Warn("amqp unreachable, domain events disabled", "err", err)
		} else {
			defer conn.Close()

			if err := events.DeclareTopology(ctx, conn); err != nil {
				log.Warn("amqp topology failed", "err", err)
			}
			opts.Publisher = events.NewAMQPPublisher(conn, log)
		}
	}

	router, err := httpx.NewAPI(cfg, pool, opts)
	if err != nil {
		log.Error("router setup failed", "err", err)
		os.Exit(1)
	}

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(sctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
