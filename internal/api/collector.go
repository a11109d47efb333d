package api

import (
	"context"
	"database/sql"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/arassiq/SafeSenior/internal/collector"
	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/database"
	igin "github.com/arassiq/SafeSenior/internal/gin"
	"github.com/arassiq/SafeSenior/internal/knowledge"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/telemetry"
	"github.com/arassiq/SafeSenior/internal/webhooksig"
)

// CollectorDeps carries the collector API's collaborators. DB, Redis and
// ES are optional backends; a nil handle skips its health check. Articles
// may be nil when the service runs without a database, in which case
// recent-article reads fall back to the knowledge index.
type CollectorDeps struct {
	Collector *collector.Collector
	Articles  *database.ArticleRepository
	Index     knowledge.Index
	Telemetry *telemetry.Provider
	Logger    logger.Logger

	DB    *sql.DB
	Redis *redis.Client
	ES    *es.Client
}

// CollectorRouter holds the collector API's dependencies.
type CollectorRouter struct {
	cfg       *config.CollectorConfig
	collector *collector.Collector
	articles  *database.ArticleRepository
	index     knowledge.Index
	telemetry *telemetry.Provider
	logger    logger.Logger
	signer    *webhooksig.Signer

	db    *sql.DB
	redis *redis.Client
	es    *es.Client
}

// NewCollectorRouter creates the collector API router. Snapshot webhook
// signature checks are active only when a signing secret is configured.
func NewCollectorRouter(cfg *config.CollectorConfig, deps CollectorDeps) *CollectorRouter {
	r := &CollectorRouter{
		cfg:       cfg,
		collector: deps.Collector,
		articles:  deps.Articles,
		index:     deps.Index,
		telemetry: deps.Telemetry,
		logger:    deps.Logger,
		db:        deps.DB,
		redis:     deps.Redis,
		es:        deps.ES,
	}
	if cfg.Collect.Trigger.SigningSecret != "" {
		r.signer = webhooksig.NewSigner(cfg.Collect.Trigger.SigningSecret)
	}

	return r
}

// NewServer builds the collector HTTP server with health checks for every
// configured backend.
func (r *CollectorRouter) NewServer(log logger.Logger) *igin.Server {
	builder := igin.NewServerBuilder(r.cfg.Service.Name, r.cfg.Server.Port).
		WithLogger(log).
		WithDebug(r.cfg.Service.Debug).
		WithVersion(r.cfg.Service.Version).
		WithTimeouts(r.cfg.Server.ReadTimeout, r.cfg.Server.WriteTimeout, r.cfg.Server.IdleTimeout).
		WithRoutes(r.setupRoutes)

	if r.db != nil {
		builder = builder.WithDatabaseHealthCheck(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
			defer cancel()
			return r.db.PingContext(ctx)
		})
	}
	if r.redis != nil {
		builder = builder.WithRedisHealthCheck(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
			defer cancel()
			return r.redis.Ping(ctx).Err()
		})
	}
	if r.es != nil {
		builder = builder.WithElasticsearchHealthCheck(func() error {
			return pingES(r.es)
		})
	}

	return builder.Build()
}

// setupRoutes configures the collector's service routes. Health routes
// come from the server builder.
func (r *CollectorRouter) setupRoutes(router *gin.Engine) {
	if r.telemetry != nil {
		router.GET("/metrics", gin.WrapH(r.telemetry.Handler()))
	}

	// The dataset provider posts snapshot deliveries here. The HMAC
	// signature is the only auth on this surface.
	hook := igin.PublicGroup(router, "/webhook")
	hook.POST("/snapshot", r.snapshotWebhook)
	hook.POST("/test", r.testWebhook)
	hook.GET("/status", r.webhookStatus)

	api := igin.PublicGroup(router, "/api/v1")
	api.POST("/collect", r.collectNow)
	api.GET("/articles/recent", r.recentArticles)
}
