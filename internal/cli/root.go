// Package cli holds the rfpctl operator commands: schema migration, admin
// seeding and dead-letter maintenance for the job queue.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/job"
	"github.com/geocoder89/rfphub/internal/scheduler"
	"github.com/spf13/cobra"
)

// Backend is what the commands act on. Postgres implements it in production.
type Backend interface {
	Migrate(ctx context.Context) error
	SeedAdmin(ctx context.Context) (bool, error)
	RetryJob(ctx context.Context, id string) error
	RetryFailed(ctx context.Context, limit int) (int64, error)
	RequeueStale(ctx context.Context, ttl time.Duration) (int64, error)
	Close()
}

// OpenFunc connects a Backend lazily so --help never touches the database.
type OpenFunc func(ctx context.Context) (Backend, error)

// NewRootCmd builds the rfpctl command tree.
func NewRootCmd(open OpenFunc, version string) *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:           "rfpctl",
		Short:         "Operator tooling for rfphub",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-command deadline")

	// withBackend runs fn against an opened backend under the --timeout deadline.
	withBackend := func(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		b, err := open(ctx)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer b.Close()

		return fn(ctx, b)
	}

	root.AddCommand(
		newMigrateCmd(withBackend),
		newSeedAdminCmd(withBackend),
		newJobsCmd(withBackend),
		newCronCmd(),
	)

	return root
}

type runner func(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error

func newMigrateCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, b Backend) error {
				if err := b.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
				return nil
			})
		},
	}
}

func newSeedAdminCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account from ADMIN_EMAIL and ADMIN_PASSWORD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, b Backend) error {
				created, err := b.SeedAdmin(ctx)
				if err != nil {
					return fmt.Errorf("seed admin: %w", err)
				}
				if created {
					fmt.Fprintln(cmd.OutOrStdout(), "admin user created")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "admin user already present or not configured")
				}
				return nil
			})
		},
	}
}

func newJobsCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Maintain the background job queue",
	}

	cmd.AddCommand(
		newJobsRetryCmd(run),
		newJobsRetryFailedCmd(run),
		newJobsRequeueStaleCmd(run),
	)

	return cmd
}

func newJobsRetryCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "retry JOB_ID",
		Short: "Requeue one failed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, b Backend) error {
				err := b.RetryJob(ctx, args[0])
				switch {
				case errors.Is(err, job.ErrJobNotFound):
					return fmt.Errorf("job %s not found", args[0])
				case errors.Is(err, job.ErrJobNotFailed):
					return fmt.Errorf("job %s is not in failed state", args[0])
				case err != nil:
					return fmt.Errorf("retry: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "job %s requeued\n", args[0])
				return nil
			})
		},
	}
}

func newJobsRetryFailedCmd(run runner) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "retry-failed",
		Short: "Requeue the most recent failed jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 || limit > 500 {
				return fmt.Errorf("--limit must be between 1 and 500, got %d", limit)
			}
			return run(cmd, func(ctx context.Context, b Backend) error {
				n, err := b.RetryFailed(ctx, limit)
				if err != nil {
					return fmt.Errorf("retry failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "requeued %d failed jobs\n", n)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum jobs to requeue (1-500)")

	return cmd
}

func newJobsRequeueStaleCmd(run runner) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "requeue-stale",
		Short: "Release jobs locked by a worker for longer than --ttl",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}
			return run(cmd, func(ctx context.Context, b Backend) error {
				n, err := b.RequeueStale(ctx, ttl)
				if err != nil {
					return fmt.Errorf("requeue stale: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "requeued %d stale jobs\n", n)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 5*time.Minute, "Lock age after which a processing job counts as stale")

	return cmd
}

func newCronCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-cron EXPR",
		Short: "Validate a SWEEP_CRON expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := scheduler.ValidateCronExpr(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q is valid\n", args[0])
			return nil
		},
	}
}
