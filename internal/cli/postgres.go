package cli

import (
	"context"
	"time"

	"github.com/geocoder89/rfphub/internal/config"
	"github.com/geocoder89/rfphub/internal/db"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/geocoder89/rfphub/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type pgBackend struct {
	cfg  config.Config
	pool *pgxpool.Pool
	jobs *postgres.JobsRepo
}

// PostgresOpener connects to cfg.DBURL on demand.
func PostgresOpener(cfg config.Config) OpenFunc {
	return func(ctx context.Context) (Backend, error) {
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, err
		}

		prom := observability.NewProm(prometheus.NewRegistry())

		return &pgBackend{
			cfg:  cfg,
			pool: pool,
			jobs: postgres.NewJobsRepo(pool, prom),
		}, nil
	}
}

func (b *pgBackend) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, b.pool)
}

func (b *pgBackend) SeedAdmin(ctx context.Context) (bool, error) {
	return db.EnsureAdminUser(ctx, b.pool, b.cfg)
}

func (b *pgBackend) RetryJob(ctx context.Context, id string) error {
	return b.jobs.Retry(ctx, id)
}

func (b *pgBackend) RetryFailed(ctx context.Context, limit int) (int64, error) {
	return b.jobs.RetryManyFailed(ctx, limit)
}

func (b *pgBackend) RequeueStale(ctx context.Context, ttl time.Duration) (int64, error) {
	return b.jobs.RequeueStaleProcessing(ctx, ttl)
}

func (b *pgBackend) Close() {
	b.pool.Close()
}
