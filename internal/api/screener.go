// Package api exposes the screener and collector HTTP surfaces on the
// shared gin server infrastructure.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/arassiq/SafeSenior/internal/callstate"
	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/database"
	"github.com/arassiq/SafeSenior/internal/detector"
	igin "github.com/arassiq/SafeSenior/internal/gin"
	"github.com/arassiq/SafeSenior/internal/knowledge"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/screening"
	"github.com/arassiq/SafeSenior/internal/telemetry"
)

const healthCheckTimeout = 2 * time.Second

// ScreenerDeps carries the screener API's collaborators. DB, Redis and
// ES are optional backends; a nil handle skips its health check, and nil
// repositories put the matching endpoints in demo mode.
type ScreenerDeps struct {
	Screener  *screening.Screener
	Engine    *detector.TrieRuleEngine
	Knowledge *knowledge.Service
	Store     callstate.Store
	Calls     *database.CallRepository
	Incidents *database.IncidentRepository
	Telemetry *telemetry.Provider
	Logger    logger.Logger

	DB    *sql.DB
	Redis *redis.Client
	ES    *es.Client
}

// ScreenerRouter holds the screener API's dependencies.
type ScreenerRouter struct {
	cfg       *config.ScreenerConfig
	screener  *screening.Screener
	engine    *detector.TrieRuleEngine
	knowledge *knowledge.Service
	store     callstate.Store
	calls     *database.CallRepository
	incidents *database.IncidentRepository
	telemetry *telemetry.Provider
	logger    logger.Logger

	db    *sql.DB
	redis *redis.Client
	es    *es.Client
}

// NewScreenerRouter creates the screener API router.
func NewScreenerRouter(cfg *config.ScreenerConfig, deps ScreenerDeps) *ScreenerRouter {
	return &ScreenerRouter{
		cfg:       cfg,
		screener:  deps.Screener,
		engine:    deps.Engine,
		knowledge: deps.Knowledge,
		store:     deps.Store,
		calls:     deps.Calls,
		incidents: deps.Incidents,
		telemetry: deps.Telemetry,
		logger:    deps.Logger,
		db:        deps.DB,
		redis:     deps.Redis,
		es:        deps.ES,
	}
}

// NewServer builds the screener HTTP server with health checks for every
// configured backend.
func (r *ScreenerRouter) NewServer(log logger.Logger) *igin.Server {
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

func pingES(client *es.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	res, err := client.Ping(client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping returned %s", res.Status())
	}
	return nil
}

// setupRoutes configures the screener's service routes. Health routes
// come from the server builder.
func (r *ScreenerRouter) setupRoutes(router *gin.Engine) {
	if r.telemetry != nil {
		router.GET("/metrics", gin.WrapH(r.telemetry.Handler()))
	}

	// The platform posts screening webhooks here; it carries no JWT.
	calls := igin.PublicGroup(router, "/api/v1/calls")
	calls.POST("/screen", r.screenCall)
	calls.POST("/test", r.testCall)
	calls.GET("", r.listCalls)
	calls.GET("/:id", r.getCall)

	admin := igin.ProtectedGroup(router, "/api/v1", r.cfg.Auth.Secret)
	admin.GET("/rules", r.getRules)
	admin.POST("/rules/reload", r.reloadRules)
	admin.GET("/stats", r.getStats)
	admin.GET("/incidents", r.listIncidents)
	admin.GET("/knowledge/query", r.queryKnowledge)
	admin.GET("/knowledge/insights", r.knowledgeInsights)
}
