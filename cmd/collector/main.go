// Command collector runs the scam news collector service. It gathers
// scam reporting from news and consumer protection feeds on a schedule,
// classifies each article, and indexes the results for the screener's
// knowledge base. Dataset providers deliver bulk snapshots through the
// webhook surface.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	es "github.com/elastic/go-elasticsearch/v8"
	goredis "github.com/redis/go-redis/v9"

	"github.com/arassiq/SafeSenior/internal/api"
	"github.com/arassiq/SafeSenior/internal/collector"
	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/database"
	"github.com/arassiq/SafeSenior/internal/elasticsearch"
	"github.com/arassiq/SafeSenior/internal/knowledge"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/redis"
	"github.com/arassiq/SafeSenior/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting collector service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Server.Port),
		logger.String("schedule", cfg.Collect.Schedule),
		logger.Bool("trigger_enabled", cfg.Collect.Trigger.Enabled()),
	)

	ctx := context.Background()
	tp := telemetry.NewProvider(cfg.Service.Name)

	var db *sql.DB
	var articles *database.ArticleRepository
	if cfg.Database.Enabled {
		db, err = setupDatabase(cfg, log)
		if err != nil {
			log.Error("Failed to connect to PostgreSQL", logger.Error(err))
			return 1
		}
		defer func() { _ = database.Close(db) }()
		articles = database.NewArticleRepository(db, log)
	}

	redisClient, deduper, err := setupDeduper(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to Redis", logger.Error(err))
		return 1
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	esClient, index, err := setupIndex(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to Elasticsearch", logger.Error(err))
		return 1
	}

	coll := setupCollector(cfg, articles, deduper, index, tp, log)

	scheduler, err := collector.NewScheduler(cfg.Collect.Schedule, coll, log)
	if err != nil {
		log.Error("Invalid collection schedule",
			logger.String("schedule", cfg.Collect.Schedule),
			logger.Error(err),
		)
		return 1
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := api.NewCollectorRouter(cfg, api.CollectorDeps{
		Collector: coll,
		Articles:  articles,
		Index:     index,
		Telemetry: tp,
		Logger:    log,
		DB:        db,
		Redis:     redisClient,
		ES:        esClient,
	})
	server := router.NewServer(log)

	if runErr := server.Run(); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return 1
	}

	log.Info("Collector service exited cleanly")
	return 0
}

// loadConfig loads configuration from config file.
func loadConfig() (*config.CollectorConfig, error) {
	return config.LoadCollector(config.GetConfigPath("config/collector.yml"))
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.CollectorConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, err
	}
	return log.With(logger.String("service", "collector")), nil
}

// setupDatabase connects to PostgreSQL for the article archive.
func setupDatabase(cfg *config.CollectorConfig, log logger.Logger) (*sql.DB, error) {
	log.Info("Connecting to PostgreSQL",
		logger.String("host", cfg.Database.Host),
		logger.String("database", cfg.Database.Database),
	)
	return database.Open(&cfg.Database, log)
}

// setupDeduper selects the duplicate filter. Redis makes dedup survive
// restarts; the in-memory filter is used when Redis is disabled.
func setupDeduper(ctx context.Context, cfg *config.CollectorConfig, log logger.Logger) (*goredis.Client, collector.Deduper, error) {
	if !cfg.Redis.Enabled {
		log.Info("Using in-memory deduplication")
		return nil, collector.NewMemoryDeduper(cfg.Collect.DedupeTTL), nil
	}

	client, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Deduplication backed by Redis", logger.String("url", cfg.Redis.URL))
	return client, collector.NewRedisDeduper(client, cfg.Collect.DedupeTTL), nil
}

// setupIndex selects the article index shared with the screener.
func setupIndex(ctx context.Context, cfg *config.CollectorConfig, log logger.Logger) (*es.Client, knowledge.Index, error) {
	if !cfg.Elasticsearch.Enabled {
		log.Info("Using in-memory article index")
		return nil, knowledge.NewMemoryIndex(), nil
	}

	client, err := elasticsearch.NewClient(ctx, cfg.Elasticsearch, log)
	if err != nil {
		return nil, nil, err
	}
	return client, knowledge.NewElasticsearchIndex(client, cfg.Elasticsearch.Index, log), nil
}

// setupCollector assembles the collection pipeline from the configured
// sources and backends.
func setupCollector(
	cfg *config.CollectorConfig,
	articles *database.ArticleRepository,
	deduper collector.Deduper,
	index knowledge.Index,
	tp *telemetry.Provider,
	log logger.Logger,
) *collector.Collector {
	deps := collector.CollectorDeps{
		Sources:   setupSources(cfg, log),
		Deduper:   deduper,
		Index:     index,
		Telemetry: tp,
		Logger:    log,
	}
	if cfg.Collect.Trigger.Enabled() {
		deps.Trigger = collector.NewTriggerClient(&cfg.Collect.Trigger, log)
		log.Info("Dataset trigger provider enabled",
			logger.String("dataset_id", cfg.Collect.Trigger.DatasetID),
		)
	}
	if cfg.Collect.EnrichContent {
		deps.Enricher = collector.NewPageEnricher(log)
	}
	// Assign the repository only when it exists so the collector's nil
	// check sees a nil interface, not a typed nil.
	if articles != nil {
		deps.Articles = articles
	}
	return collector.NewCollector(&cfg.Collect, deps)
}

// setupSources builds the configured article sources. With nothing
// configured the simulated source keeps the pipeline exercisable in
// development.
func setupSources(cfg *config.CollectorConfig, log logger.Logger) []collector.Source {
	var sources []collector.Source
	if cfg.Collect.NewsAPI.Enabled() {
		sources = append(sources, collector.NewNewsAPISource(&cfg.Collect.NewsAPI, log))
		log.Info("NewsAPI source enabled", logger.String("query", cfg.Collect.NewsAPI.Query))
	}
	if cfg.Collect.RSS.Enabled {
		sources = append(sources, collector.NewRSSSource(&cfg.Collect.RSS, log))
		log.Info("RSS source enabled", logger.Int("feeds", len(cfg.Collect.RSS.Feeds)))
	}
	if len(sources) == 0 && !cfg.Collect.Trigger.Enabled() {
		log.Info("No sources configured, using simulated source")
		sources = append(sources, collector.NewSimulatedSource())
	}
	return sources
}
