// Command screener runs the call screening service. It receives
// screening webhooks from the call platform, scores transcripts with
// the rule engine and the scam knowledge base, and answers with a
// routing decision.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	es "github.com/elastic/go-elasticsearch/v8"
	goredis "github.com/redis/go-redis/v9"

	"github.com/arassiq/SafeSenior/internal/api"
	"github.com/arassiq/SafeSenior/internal/callcontrol"
	"github.com/arassiq/SafeSenior/internal/callstate"
	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/database"
	"github.com/arassiq/SafeSenior/internal/detector"
	"github.com/arassiq/SafeSenior/internal/elasticsearch"
	"github.com/arassiq/SafeSenior/internal/knowledge"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/notify"
	"github.com/arassiq/SafeSenior/internal/redis"
	"github.com/arassiq/SafeSenior/internal/screening"
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

	log.Info("Starting screener service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Server.Port),
		logger.Bool("debug", cfg.Service.Debug),
		logger.Bool("simulated_call_control", cfg.CallControl.Simulated()),
	)

	ctx := context.Background()
	tp := telemetry.NewProvider(cfg.Service.Name)

	var db *sql.DB
	var calls *database.CallRepository
	var incidents *database.IncidentRepository
	if cfg.Database.Enabled {
		db, err = setupDatabase(cfg, log)
		if err != nil {
			log.Error("Failed to connect to PostgreSQL", logger.Error(err))
			return 1
		}
		defer func() { _ = database.Close(db) }()
		calls = database.NewCallRepository(db)
		incidents = database.NewIncidentRepository(db)
	}

	redisClient, store, err := setupCallState(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to Redis", logger.Error(err))
		return 1
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	esClient, index, err := setupKnowledgeIndex(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to Elasticsearch", logger.Error(err))
		return 1
	}
	// The memory index starts cold. Elasticsearch keeps its documents
	// across restarts and needs no warm start.
	if db != nil && esClient == nil {
		warmKnowledgeIndex(ctx, database.NewArticleRepository(db, log), index, log)
	}

	engine := setupRuleEngine(cfg, log, tp)
	svc := knowledge.NewService(index, cfg.Screening.ScamThreshold, log, tp)
	callClient := callcontrol.New(&cfg.CallControl, log)

	screenerDeps := screening.ScreenerDeps{
		Engine:      engine,
		Knowledge:   svc,
		CallControl: callClient,
		Notifier:    setupNotifier(cfg, callClient, log, tp),
		Store:       store,
		Telemetry:   tp,
		Logger:      log,
	}
	// Assign repositories only when they exist so the screener's nil
	// checks see a nil interface, not a typed nil.
	if calls != nil {
		screenerDeps.Calls = calls
	}
	if incidents != nil {
		screenerDeps.Incidents = incidents
	}
	screener := screening.NewScreener(&cfg.Screening, screenerDeps)
	log.Info("Screening pipeline initialized")

	router := api.NewScreenerRouter(cfg, api.ScreenerDeps{
		Screener:  screener,
		Engine:    engine,
		Knowledge: svc,
		Store:     store,
		Calls:     calls,
		Incidents: incidents,
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

	log.Info("Screener service exited cleanly")
	return 0
}

// loadConfig loads configuration from config file.
func loadConfig() (*config.ScreenerConfig, error) {
	return config.LoadScreener(config.GetConfigPath("config/screener.yml"))
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.ScreenerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, err
	}
	return log.With(logger.String("service", "screener")), nil
}

// setupDatabase connects to PostgreSQL for call and incident history.
func setupDatabase(cfg *config.ScreenerConfig, log logger.Logger) (*sql.DB, error) {
	log.Info("Connecting to PostgreSQL",
		logger.String("host", cfg.Database.Host),
		logger.String("database", cfg.Database.Database),
	)
	return database.Open(&cfg.Database, log)
}

// setupCallState selects the call state store. Redis keeps state across
// restarts; the in-memory store is used when Redis is disabled.
func setupCallState(ctx context.Context, cfg *config.ScreenerConfig, log logger.Logger) (*goredis.Client, callstate.Store, error) {
	if !cfg.Redis.Enabled {
		log.Info("Using in-memory call state store")
		return nil, callstate.NewMemoryStore(cfg.Screening.StateTTL), nil
	}

	client, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Call state persisted in Redis", logger.String("url", cfg.Redis.URL))
	return client, callstate.NewRedisStore(client, cfg.Screening.StateTTL, log), nil
}

// setupKnowledgeIndex selects the scam article index backing the
// knowledge base.
func setupKnowledgeIndex(ctx context.Context, cfg *config.ScreenerConfig, log logger.Logger) (*es.Client, knowledge.Index, error) {
	if !cfg.Elasticsearch.Enabled {
		log.Info("Using in-memory knowledge index")
		return nil, knowledge.NewMemoryIndex(), nil
	}

	client, err := elasticsearch.NewClient(ctx, cfg.Elasticsearch, log)
	if err != nil {
		return nil, nil, err
	}
	return client, knowledge.NewElasticsearchIndex(client, cfg.Elasticsearch.Index, log), nil
}

// warmArticleLimit caps how much article history is replayed into the
// in-memory knowledge index at startup.
const warmArticleLimit = 500

// warmKnowledgeIndex replays persisted articles into the knowledge
// index so screening has corroboration before the collector's next run.
// Best effort: a failure leaves the index empty, not the service down.
func warmKnowledgeIndex(ctx context.Context, articles *database.ArticleRepository, index knowledge.Index, log logger.Logger) {
	stored, err := articles.Count(ctx)
	if err != nil {
		log.Warn("Skipping knowledge index warm start", logger.Error(err))
		return
	}
	if stored == 0 {
		return
	}

	recent, err := articles.Recent(ctx, warmArticleLimit)
	if err != nil {
		log.Warn("Skipping knowledge index warm start", logger.Error(err))
		return
	}
	if err := index.Add(ctx, recent); err != nil {
		log.Warn("Failed to warm knowledge index", logger.Error(err))
		return
	}

	log.Info("Knowledge index warmed from article history",
		logger.Int("indexed", len(recent)),
		logger.Int("stored", stored),
	)
}

// setupRuleEngine loads the rule set and builds the matching engine.
// A missing or broken rules file falls back to the built-in rules so
// the screener never starts without detection.
func setupRuleEngine(cfg *config.ScreenerConfig, log logger.Logger, tp *telemetry.Provider) *detector.TrieRuleEngine {
	rules, err := detector.LoadRulesFile(cfg.Screening.RulesPath)
	if err != nil {
		log.Warn("Falling back to built-in rules",
			logger.String("path", cfg.Screening.RulesPath),
			logger.Error(err),
		)
		rules = detector.DefaultRules()
	}
	log.Info("Rule engine loaded", logger.Int("rules", len(rules)))
	return detector.NewTrieRuleEngine(rules, log, tp)
}

// setupNotifier assembles the family notification chain.
func setupNotifier(cfg *config.ScreenerConfig, client callcontrol.Client, log logger.Logger, tp *telemetry.Provider) *notify.Multi {
	var notifiers []notify.Notifier
	if cfg.Screening.FamilyNumber != "" {
		notifiers = append(notifiers, notify.NewSMSNotifier(client, cfg.Screening.FamilyNumber, log))
	}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegramNotifier(&cfg.Telegram, log)
		if err != nil {
			log.Warn("Telegram notifier disabled", logger.Error(err))
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	return notify.NewMulti(log, tp, notifiers...)
}
