package logger

// Config holds logger construction settings. The zero value is usable:
// defaults give info-level JSON on stdout.
type Config struct {
	// Level is the minimum level logged (debug, info, warn, error, fatal).
	Level string `env:"LOG_LEVEL" yaml:"level"`
	// Format is accepted for config compatibility; output is always JSON.
	Format string `env:"LOG_FORMAT" yaml:"format"`
	// Development disables sampling so no entries are dropped.
	Development bool `yaml:"development"`
	// OutputPaths lists sink URLs or file paths. Defaults to stdout.
	OutputPaths []string `yaml:"output_paths"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
}
