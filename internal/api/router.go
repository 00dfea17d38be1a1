// Package api exposes the meal planner over HTTP.
package api

import (
	"time"

	"cafe-calorie/internal/app"
	"cafe-calorie/internal/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDKey = "request_id"

// Options configure the router.
type Options struct {
	// JWTSecret enables bearer auth on the plan endpoints when set.
	JWTSecret string
	// DataDir is reported on by /health.
	DataDir string
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// AllowOrigins lists CORS origins. Empty allows any origin.
	AllowOrigins []string
}

// NewRouter wires the HTTP routes.
func NewRouter(a *app.App, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(), corsMiddleware(opts.AllowOrigins))

	h := &handler{app: a, dataDir: opts.DataDir}

	r.GET("/health", h.health)
	r.GET("/dishes", h.dishes)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	plans := r.Group("/plans")
	if opts.JWTSecret != "" {
		plans.Use(AuthMiddleware([]byte(opts.JWTSecret)))
	}
	plans.POST("", h.createPlan)
	plans.POST("/alternate", h.alternatePlan)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	log := logging.With("api")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
