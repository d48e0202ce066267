package gateway

import (
	"net/http"

	"github.com/geocoder89/rfphub/internal/http/middlewares"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterConfig struct {
	Env            string
	ServiceName    string
	AllowedOrigins []string
	Prom           *observability.Prom
	Gatherer       prometheus.Gatherer
}

// NewRouter mounts the proxy on /api/*path next to the health endpoints.
func NewRouter(cfg RouterConfig, proxy *Proxy) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "rfphub-gateway"
	}

	r := gin.New()

	r.Use(otelgin.Middleware(cfg.ServiceName))
	if cfg.Prom != nil {
		r.Use(cfg.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(gin.Recovery())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(middlewares.DefaultMaxBodyBytes))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.GET("/*path", proxy.Handle)
		api.POST("/*path", proxy.Handle)
		api.PUT("/*path", proxy.Handle)
		api.DELETE("/*path", proxy.Handle)
	}

	return r
}
