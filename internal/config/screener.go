package config

import (
	"fmt"
	"time"
)

// ScreenerConfig holds all configuration for the call screening service.
type ScreenerConfig struct {
	Service       ServiceConfig       `yaml:"service"`
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Screening     ScreeningConfig     `yaml:"screening"`
	CallControl   CallControlConfig   `yaml:"call_control"`
	Auth          AuthConfig          `yaml:"auth"`
	Telegram      TelegramConfig      `yaml:"telegram"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `env:"APP_DEBUG" yaml:"debug"`
}

// ScreeningConfig holds the detection and decision settings.
type ScreeningConfig struct {
	// ScamThreshold is the risk score above which a call is considered
	// a scam.
	ScamThreshold float64 `env:"SCAM_RISK_THRESHOLD" yaml:"scam_threshold"`
	// KnowledgeWeight scales the knowledge-base corroboration score
	// before it is added to the rule engine score.
	KnowledgeWeight float64 `yaml:"knowledge_weight"`
	// RulesPath points at the YAML rule set loaded into the engine.
	RulesPath string `env:"RULES_PATH" yaml:"rules_path"`
	// FamilyNumber receives warm transfers and SMS notifications.
	FamilyNumber string `env:"FAMILY_NUMBER" yaml:"family_number"`
	// ElderNumber is the destination for normal transfers.
	ElderNumber string `env:"ELDER_NUMBER" yaml:"elder_number"`
	// StateTTL bounds how long call state stays in the store.
	StateTTL time.Duration `yaml:"state_ttl"`
}

// SetDefaults applies default values for ScreeningConfig.
func (c *ScreeningConfig) SetDefaults() {
	if c.ScamThreshold == 0 {
		c.ScamThreshold = 0.7
	}
	if c.KnowledgeWeight == 0 {
		c.KnowledgeWeight = 0.3
	}
	if c.RulesPath == "" {
		c.RulesPath = "config/rules.yml"
	}
	if c.StateTTL == 0 {
		c.StateTTL = 24 * time.Hour
	}
}

// CallControlConfig holds the upstream call platform settings.
// An empty API key selects the simulated client.
type CallControlConfig struct {
	BaseURL string `env:"CALL_CONTROL_BASE_URL" yaml:"base_url"`
	APIKey  string `env:"CALL_CONTROL_API_KEY"  yaml:"api_key"`
	// FromNumber is the E.164 sender for outbound SMS.
	FromNumber string        `env:"SMS_FROM_NUMBER" yaml:"from_number"`
	Timeout    time.Duration `yaml:"timeout"`
	// WarmTransferTimeout bounds how long a warm transfer may ring
	// the family contact before falling back.
	WarmTransferTimeout time.Duration `yaml:"warm_transfer_timeout"`
}

// Simulated reports whether the call platform should be simulated.
func (c *CallControlConfig) Simulated() bool {
	return c.APIKey == ""
}

// SetDefaults applies default values for CallControlConfig.
func (c *CallControlConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.WarmTransferTimeout == 0 {
		c.WarmTransferTimeout = 30 * time.Second
	}
}

// LoadScreener loads the screener configuration from file and environment.
func LoadScreener(path string) (*ScreenerConfig, error) {
	cfg, err := LoadWithDefaults[ScreenerConfig](path, screenerDefaults)
	if err != nil {
		return nil, err
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return cfg, nil
}

func screenerDefaults(cfg *ScreenerConfig) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "screener"
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = "1.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	cfg.Server.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Database.SetDefaults()
	cfg.Redis.SetDefaults()
	cfg.Elasticsearch.SetDefaults()
	cfg.Screening.SetDefaults()
	cfg.CallControl.SetDefaults()
}

// Validate checks the screener configuration for errors.
func (c *ScreenerConfig) Validate() error {
	if err := ValidatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := ValidateThreshold("screening.scam_threshold", c.Screening.ScamThreshold); err != nil {
		return err
	}
	if err := ValidateThreshold("screening.knowledge_weight", c.Screening.KnowledgeWeight); err != nil {
		return err
	}
	if c.Database.Enabled {
		if err := ValidateRequired("database.host", c.Database.Host); err != nil {
			return err
		}
		if err := ValidateRequired("database.database", c.Database.Database); err != nil {
			return err
		}
	}
	if !c.CallControl.Simulated() {
		if err := ValidateRequired("call_control.base_url", c.CallControl.BaseURL); err != nil {
			return err
		}
	}
	return nil
}
