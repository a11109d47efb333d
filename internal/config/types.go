package config

import (
	"net/url"
	"strconv"
	"time"
)

// ServerConfig holds the HTTP listener settings shared by both services.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// SetDefaults fills unset timeouts. Each service picks its own port
// before calling this.
func (c *ServerConfig) SetDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// DatabaseConfig holds PostgreSQL settings. A disabled database puts
// the service in demo mode: screening results and collected articles
// are logged but not persisted.
type DatabaseConfig struct {
	Enabled         bool          `env:"DATABASE_ENABLED" yaml:"enabled"`
	Host            string        `env:"DATABASE_HOST"    yaml:"host"`
	Port            int           `env:"DATABASE_PORT"    yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `env:"DATABASE_PASSWORD" yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// DSN returns the keyword form connection string the sql driver takes.
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + formatPort(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Database +
		" sslmode=" + c.SSLMode
}

// URL returns the connection string in URL form, which the schema
// migration tooling requires. Credentials are escaped, so passwords
// with special characters survive.
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + formatPort(c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// SetDefaults fills unset fields with local-development values.
func (c *DatabaseConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
}

// ElasticsearchConfig holds the knowledge index settings. When disabled
// the services fall back to the in-memory index.
type ElasticsearchConfig struct {
	Enabled    bool          `env:"ELASTICSEARCH_ENABLED" yaml:"enabled"`
	URL        string        `env:"ELASTICSEARCH_URL"     yaml:"url"`
	Username   string        `yaml:"username"`
	Password   string        `env:"ELASTICSEARCH_PASSWORD" yaml:"password"`
	Index      string        `yaml:"index"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// SetDefaults fills unset fields. The index name is shared between the
// collector (writer) and the screener (reader).
func (c *ElasticsearchConfig) SetDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:9200"
	}
	if c.Index == "" {
		c.Index = "scam_articles"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// RedisConfig holds the Redis settings backing call state and dedupe
// tracking. When disabled the services fall back to in-memory stores.
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" yaml:"enabled"`
	URL      string `env:"REDIS_URL"     yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SetDefaults fills the address for local development.
func (c *RedisConfig) SetDefaults() {
	if c.URL == "" {
		c.URL = "localhost:6379"
	}
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// SetDefaults fills unset fields.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

// AuthConfig holds JWT auth settings for the admin endpoints.
// An empty secret disables auth (demo mode).
type AuthConfig struct {
	Secret string `env:"AUTH_JWT_SECRET" yaml:"secret"`
}

// Enabled reports whether admin auth is configured.
func (c *AuthConfig) Enabled() bool {
	return c.Secret != ""
}

// TelegramConfig holds the optional ops alert channel settings.
type TelegramConfig struct {
	Token  string `env:"TELEGRAM_BOT_TOKEN" yaml:"token"`
	ChatID int64  `env:"TELEGRAM_CHAT_ID"   yaml:"chat_id"`
}

// Enabled reports whether the Telegram alert channel is configured.
func (c *TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}

func formatPort(port int) string {
	return strconv.Itoa(port)
}
