package http

import (
	"fmt"
	"time"

	"github.com/geocoder89/rfphub/internal/auth"
	"github.com/geocoder89/rfphub/internal/cache"
	"github.com/geocoder89/rfphub/internal/concierge"
	"github.com/geocoder89/rfphub/internal/config"
	"github.com/geocoder89/rfphub/internal/events"
	"github.com/geocoder89/rfphub/internal/graphql"
	"github.com/geocoder89/rfphub/internal/http/handlers"
	"github.com/geocoder89/rfphub/internal/http/middlewares"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/geocoder89/rfphub/internal/queue/redisclient"
	"github.com/geocoder89/rfphub/internal/repo/memory"
	"github.com/geocoder89/rfphub/internal/repo/postgres"
	"github.com/geocoder89/rfphub/internal/repo/redisstore"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Options are the optional collaborators of the API. Zero values give an
// API without metrics, with no-op events and in-memory concierge history.
type Options struct {
	Prom      *observability.Prom
	Gatherer  prometheus.Gatherer
	Publisher events.Publisher
	Redis     *redisclient.Client
	ListTTL   time.Duration
}

// NewAPI wires the postgres repositories into the handlers and mounts them.
func NewAPI(cfg config.Config, pool *pgxpool.Pool, opts Options) (*gin.Engine, error) {
	prom := opts.Prom

	jobsRepo := postgres.NewJobsRepo(pool, prom)
	usersRepo := postgres.NewUsersRepo(pool, prom)
	orgsRepo := postgres.NewOrganizationsRepo(pool, prom, usersRepo)
	rfpsRepo := postgres.NewRFPsRepo(pool, prom, jobsRepo)
	offersRepo := postgres.NewOffersRepo(pool, prom, jobsRepo)
	productsRepo := postgres.NewProductsRepo(pool, prom)
	ordersRepo := postgres.NewOrdersRepo(pool, prom)
	poolsRepo := postgres.NewPoolsRepo(pool, prom)
	statsRepo := postgres.NewStatsRepo(pool, prom)
	tokensRepo := postgres.NewRefreshTokensRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	emitter := events.NewEmitter(opts.Publisher, prom)

	listTTL := opts.ListTTL
	if listTTL <= 0 {
		listTTL = 15 * time.Second
	}

	rfpList := cache.New(listTTL)

	var history concierge.HistoryStore = memory.NewConciergeHistory()
	if opts.Redis != nil {
		history = redisstore.NewConciergeHistory(opts.Redis)
	}

	schema, err := graphql.NewSchema(statsRepo)
	if err != nil {
		return nil, fmt.Errorf("build graphql schema: %w", err)
	}

	var pinger handlers.Pinger
	if pool != nil {
		pinger = pool
	}

	return NewRouter(Deps{
		Env:            cfg.Env,
		AllowedOrigins: cfg.AllowedOrigins,
		Prom:           prom,
		Gatherer:       opts.Gatherer,
		Auth:           middlewares.NewAuthMiddleware(jwtManager),

		Health:        handlers.NewHealthHandler(pinger),
		AuthH:         handlers.NewAuthHandler(usersRepo, jwtManager, tokensRepo, cfg.Env != "dev" && cfg.Env != "test"),
		Users:         handlers.NewUsersHandler(usersRepo, statsRepo),
		Organizations: handlers.NewOrganizationsHandler(orgsRepo),
		RFPs:          handlers.NewRFPsHandler(rfpsRepo, usersRepo, rfpList, emitter),
		Offers:        handlers.NewOffersHandler(offersRepo, rfpsRepo, usersRepo, rfpList, emitter),
		Products:      handlers.NewProductsHandler(productsRepo, usersRepo),
		Orders:        handlers.NewOrdersHandler(ordersRepo),
		Pools:         handlers.NewPoolsHandler(poolsRepo, emitter),
		Concierge:     handlers.NewConciergeHandler(concierge.NewService(history, nil)),
		GraphQL:       handlers.NewGraphQLHandler(schema),
		AdminJobs:     handlers.NewAdminJobsHandler(jobsRepo),
	}), nil
}
