package config

import (
	"fmt"
	"time"
)

// CollectorConfig holds all configuration for the scam news collector.
type CollectorConfig struct {
	Service       ServiceConfig       `yaml:"service"`
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Collect       CollectConfig       `yaml:"collect"`
	Telegram      TelegramConfig      `yaml:"telegram"`
}

// CollectConfig holds the collection pipeline settings.
type CollectConfig struct {
	// Schedule is the cron expression for periodic collection runs.
	Schedule string `yaml:"schedule"`
	// MaxArticles caps how many articles a single run keeps per source.
	MaxArticles int `yaml:"max_articles"`
	// DedupeTTL bounds how long a collected title blocks duplicates.
	DedupeTTL time.Duration `yaml:"dedupe_ttl"`
	// EnrichContent fetches the article page when a feed item only
	// carries a summary.
	EnrichContent bool `yaml:"enrich_content"`

	Trigger TriggerConfig `yaml:"trigger"`
	NewsAPI NewsAPIConfig `yaml:"newsapi"`
	RSS     RSSConfig     `yaml:"rss"`
}

// TriggerConfig holds the dataset-trigger provider settings.
// An empty API key selects the simulated source.
type TriggerConfig struct {
	BaseURL   string `env:"TRIGGER_BASE_URL"   yaml:"base_url"`
	APIKey    string `env:"TRIGGER_API_KEY"    yaml:"api_key"`
	DatasetID string `env:"TRIGGER_DATASET_ID" yaml:"dataset_id"`
	// NotifyURL is the publicly reachable snapshot webhook endpoint
	// passed to the provider on trigger.
	NotifyURL string `env:"TRIGGER_NOTIFY_URL" yaml:"notify_url"`
	// SigningSecret verifies webhook deliveries when set.
	SigningSecret string `env:"TRIGGER_SIGNING_SECRET" yaml:"signing_secret"`
}

// Enabled reports whether the trigger provider is configured.
func (c *TriggerConfig) Enabled() bool {
	return c.APIKey != ""
}

// NewsAPIConfig holds the NewsAPI source settings.
// An empty API key selects the simulated source.
type NewsAPIConfig struct {
	APIKey   string `env:"NEWSAPI_KEY" yaml:"api_key"`
	Query    string `yaml:"query"`
	PageSize int    `yaml:"page_size"`
}

// Enabled reports whether the NewsAPI source is configured.
func (c *NewsAPIConfig) Enabled() bool {
	return c.APIKey != ""
}

// RSSConfig holds the RSS source settings.
type RSSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Feeds   []string `yaml:"feeds"`
}

// SetDefaults applies default values for CollectConfig.
func (c *CollectConfig) SetDefaults() {
	if c.Schedule == "" {
		c.Schedule = "0 */6 * * *"
	}
	if c.MaxArticles == 0 {
		c.MaxArticles = 25
	}
	if c.DedupeTTL == 0 {
		c.DedupeTTL = 7 * 24 * time.Hour
	}
	if c.NewsAPI.Query == "" {
		c.NewsAPI.Query = "elderly scam OR senior fraud OR grandparent scam OR medicare fraud"
	}
	if c.NewsAPI.PageSize == 0 {
		c.NewsAPI.PageSize = 20
	}
	if len(c.RSS.Feeds) == 0 {
		c.RSS.Feeds = []string{
			"https://consumer.ftc.gov/blog/rss",
			"https://www.aarp.org/money/scams-fraud/rss/",
			"https://www.fbi.gov/feeds/fbi-in-the-news/rss.xml",
		}
	}
}

// LoadCollector loads the collector configuration from file and environment.
func LoadCollector(path string) (*CollectorConfig, error) {
	cfg, err := LoadWithDefaults[CollectorConfig](path, collectorDefaults)
	if err != nil {
		return nil, err
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return cfg, nil
}

func collectorDefaults(cfg *CollectorConfig) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "collector"
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = "1.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8001
	}
	cfg.Server.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Database.SetDefaults()
	cfg.Redis.SetDefaults()
	cfg.Elasticsearch.SetDefaults()
	cfg.Collect.SetDefaults()
}

// Validate checks the collector configuration for errors.
func (c *CollectorConfig) Validate() error {
	if err := ValidatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Collect.Trigger.Enabled() {
		if err := ValidateRequired("collect.trigger.base_url", c.Collect.Trigger.BaseURL); err != nil {
			return err
		}
		if err := ValidateRequired("collect.trigger.dataset_id", c.Collect.Trigger.DatasetID); err != nil {
			return err
		}
	}
	if c.Database.Enabled {
		if err := ValidateRequired("database.host", c.Database.Host); err != nil {
			return err
		}
		if err := ValidateRequired("database.database", c.Database.Database); err != nil {
			return err
		}
	}
	return nil
}
