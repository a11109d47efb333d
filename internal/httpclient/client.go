// Package httpclient builds the outbound HTTP clients shared by the
// SafeSenior services. The call platform client and the collector's
// news fetchers all sit on the same transport defaults so connection
// pooling behaves the same everywhere.
package httpclient

import (
	"net/http"
	"time"
)

const (
	defaultTimeout               = 30 * time.Second
	defaultMaxIdleConns          = 100
	defaultMaxIdleConnsPerHost   = 10
	defaultIdleConnTimeout       = 90 * time.Second
	defaultResponseHeaderTimeout = 30 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
)

// Config adjusts client construction. Zero fields take package defaults.
type Config struct {
	// Timeout bounds each request end to end, including body reads.
	Timeout time.Duration

	// MaxIdleConns caps idle keep-alive connections across all hosts.
	MaxIdleConns int

	// MaxIdleConnsPerHost caps idle keep-alive connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout closes idle connections after this long.
	IdleConnTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers once
	// the request is fully written.
	ResponseHeaderTimeout time.Duration

	// DisableKeepAlives uses a fresh connection per request.
	DisableKeepAlives bool
}

// NewClient builds an *http.Client with pooled transport settings.
// A nil cfg gets all defaults.
func NewClient(cfg *Config) *http.Client {
	if cfg == nil {
		cfg = &Config{}
	}
	c := withDefaults(*cfg)

	return &http.Client{
		Timeout: c.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:          c.MaxIdleConns,
			MaxIdleConnsPerHost:   c.MaxIdleConnsPerHost,
			IdleConnTimeout:       c.IdleConnTimeout,
			ResponseHeaderTimeout: c.ResponseHeaderTimeout,
			TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
			DisableKeepAlives:     c.DisableKeepAlives,
		},
	}
}

func withDefaults(c Config) Config {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = defaultIdleConnTimeout
	}
	if c.ResponseHeaderTimeout == 0 {
		c.ResponseHeaderTimeout = defaultResponseHeaderTimeout
	}
	return c
}
