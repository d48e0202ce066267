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
	"github.com/geocoder89/rfphub/internal/gateway"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "rfphub-gateway"

func main() {
	cfg := config.Load()

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
	prom := observability.NewProm(reg)

	// the client transport propagates the trace context to the api
	client := &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	router := gateway.NewRouter(gateway.RouterConfig{
		Env:            cfg.Env,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		Prom:           prom,
		Gatherer:       reg,
	}, gateway.NewProxy(cfg.APIBaseURL, client, prom))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GatewayPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("gateway starting", "port", cfg.GatewayPort, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("gateway failed", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("gateway shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
	if err := shutdownTracer(sctx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}

	log.Info("shutdown complete")
}
