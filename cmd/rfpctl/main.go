package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/rfphub/internal/cli"
	"github.com/geocoder89/rfphub/internal/config"
	"github.com/geocoder89/rfphub/internal/observability"
)

// version is set with -ldflags at build time.
var version = "dev"

func main() {
	cfg := config.Load()
	slog.SetDefault(observability.NewLogger(cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(cli.PostgresOpener(cfg), version)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
