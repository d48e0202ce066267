package http

import (
	"time"

	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/geocoder89/rfphub/internal/http/handlers"
	"github.com/geocoder89/rfphub/internal/http/middlewares"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the API router mounts. Handlers are built by the caller
// so tests can swap their stores for fakes.
type Deps struct {
	Env            string
	ServiceName    string
	AllowedOrigins []string

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Auth     *middlewares.AuthMiddleware

	// nil limiters fall back to the defaults below
	AuthLimiter      *middlewares.RateLimiter
	ConciergeLimiter *middlewares.RateLimiter

	Health        *handlers.HealthHandler
	AuthH         *handlers.AuthHandler
	Users         *handlers.UsersHandler
	Organizations *handlers.OrganizationsHandler
	RFPs          *handlers.RFPsHandler
	Offers        *handlers.OffersHandler
	Products      *handlers.ProductsHandler
	Orders        *handlers.OrdersHandler
	Pools         *handlers.PoolsHandler
	Concierge     *handlers.ConciergeHandler
	GraphQL       *handlers.GraphQLHandler
	AdminJobs     *handlers.AdminJobsHandler
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.ServiceName == "" {
		d.ServiceName = "rfphub-api"
	}
	if d.AuthLimiter == nil {
		d.AuthLimiter = middlewares.NewRateLimiter(20, time.Minute)
	}
	if d.ConciergeLimiter == nil {
		d.ConciergeLimiter = middlewares.NewRateLimiter(30, time.Minute)
	}

	r := gin.New()

	r.Use(otelgin.Middleware(d.ServiceName))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(middlewares.DefaultMaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	r.GET("/healthz", d.Health.Healthz)
	r.GET("/readyz", d.Health.Readyz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	requireAuth := d.Auth.RequireAuth()
	optionalAuth := d.Auth.OptionalAuth()
	buyers := d.Auth.RequireRole(string(user.RoleBuyer), string(user.RoleAdmin))
	sellers := d.Auth.RequireRole(string(user.RoleSeller), string(user.RoleAdmin))
	admins := d.Auth.RequireRole(string(user.RoleAdmin))

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth", d.AuthLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	{
		authGroup.POST("/register", d.AuthH.Register)
		authGroup.POST("/login", d.AuthH.Login)
		authGroup.POST("/refresh", d.AuthH.Refresh)
		authGroup.POST("/logout", d.AuthH.Logout)
	}

	users := v1.Group("/users")
	{
		users.GET("/me", requireAuth, d.Users.Me)
		users.PUT("/me", requireAuth, d.Users.UpdateMe)
		users.GET("/:id/reputation", d.Users.Reputation)
	}

	orgs := v1.Group("/organizations", requireAuth)
	{
		orgs.POST("", d.Organizations.Create)
		orgs.GET("/:id", d.Organizations.GetByID)
	}

	rfps := v1.Group("/rfps")
	{
		rfps.POST("", requireAuth, buyers, d.RFPs.Create)
		rfps.GET("", optionalAuth, d.RFPs.List)

		rfps.GET("/offers/my", requireAuth, sellers, d.Offers.My)
		rfps.GET("/offers/:offer_id", requireAuth, d.Offers.GetByID)
		rfps.PUT("/offers/:offer_id", requireAuth, sellers, d.Offers.Update)
		rfps.DELETE("/offers/:offer_id", requireAuth, sellers, d.Offers.Withdraw)
		rfps.POST("/offers/:offer_id/accept", requireAuth, buyers, d.Offers.Accept)
		rfps.GET("/offers/:offer_id/suggestions", requireAuth, d.Offers.Suggestions)

		rfps.GET("/:id", optionalAuth, d.RFPs.GetByID)
		rfps.PUT("/:id", requireAuth, buyers, d.RFPs.Update)
		rfps.POST("/:id/publish", requireAuth, buyers, d.RFPs.Publish)
		rfps.POST("/:id/close", requireAuth, buyers, d.RFPs.Close)
		rfps.POST("/:id/offers", requireAuth, sellers, d.Offers.Create)
		rfps.GET("/:id/offers", requireAuth, d.Offers.ListByRFP)
	}

	products := v1.Group("/products")
	{
		products.POST("", requireAuth, sellers, d.Products.Create)
		products.GET("", d.Products.List)
		products.GET("/:id", d.Products.GetByID)
	}

	orders := v1.Group("/orders", requireAuth)
	{
		orders.GET("", d.Orders.List)
		orders.GET("/:id", d.Orders.GetByID)
		orders.POST("/:id/status", d.Orders.UpdateStatus)
	}

	pools := v1.Group("/pools")
	{
		pools.POST("", requireAuth, d.Pools.Create)
		pools.GET("", d.Pools.List)
		pools.GET("/:id", d.Pools.GetByID)
		pools.POST("/:id/join", requireAuth, d.Pools.Join)
	}

	concierge := v1.Group("/ai-concierge", requireAuth, d.ConciergeLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	{
		concierge.POST("/chat", d.Concierge.Chat)
		concierge.GET("/templates/:category", d.Concierge.Template)
		concierge.POST("/analyze-offer", d.Concierge.AnalyzeOffer)
		concierge.DELETE("/clear-history", d.Concierge.ClearHistory)
		concierge.GET("/suggestions", d.Concierge.Suggestions)
		concierge.GET("/history", d.Concierge.History)
	}

	v1.POST("/graphql", requireAuth, d.GraphQL.Serve)

	admin := v1.Group("/admin", requireAuth, admins)
	{
		admin.GET("/jobs", d.AdminJobs.List)
		admin.GET("/jobs/:id", d.AdminJobs.GetByID)
		admin.POST("/jobs/:id/retry", d.AdminJobs.Retry)
		admin.POST("/jobs/reprocess-dead", d.AdminJobs.ReprocessDead)
	}

	return r
}
