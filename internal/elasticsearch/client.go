// Package elasticsearch builds the shared client for the scam article
// index. The collector writes through it and the screener queries it
// during calls.
package elasticsearch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/retry"
)

// Connection-check pacing. Elasticsearch is routinely the last
// container to come up on a cold stack start, so early failures are
// expected and the backoff stretches accordingly.
const (
	pingInitialDelay = time.Second
	pingMaxDelay     = 15 * time.Second
)

// NewClient connects to Elasticsearch and verifies the connection
// before returning, retrying with exponential backoff so services
// starting alongside the cluster do not die on the first refused
// connection.
func NewClient(ctx context.Context, cfg config.ElasticsearchConfig, log logger.Logger) (*es.Client, error) {
	cfg.SetDefaults()
	url := normalizeURL(cfg.URL)

	client, err := es.NewClient(buildConfig(url, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	log.Info("Verifying Elasticsearch connection", logger.String("url", url))

	retryCfg := retry.Config{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: pingInitialDelay,
		MaxDelay:     pingMaxDelay,
		Multiplier:   2.0,
		// A single-node cluster answers 503 until its state recovers,
		// which the transient-network classifier would not retry.
		IsRetryable: func(error) bool { return true },
	}
	err = retry.Retry(ctx, retryCfg, func() error {
		return ping(ctx, client, cfg.Timeout, log)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	log.Info("Elasticsearch connection established", logger.String("url", url))
	return client, nil
}

// buildConfig translates service configuration into the driver's form.
func buildConfig(url string, cfg config.ElasticsearchConfig) es.Config {
	esCfg := es.Config{
		Addresses:  []string{url},
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.Username != "" && cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}
	return esCfg
}

// normalizeURL fills in the scheme when the configured URL omits it,
// so "elasticsearch:9200" in a compose file works as written.
func normalizeURL(url string) string {
	if url == "" {
		return "http://localhost:9200"
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "http://" + url
}

// ping performs one bounded connection check.
func ping(ctx context.Context, client *es.Client, timeout time.Duration, log logger.Logger) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := client.Ping(client.Ping.WithContext(ctx))
	if err != nil {
		log.Debug("Elasticsearch ping failed", logger.Error(err))
		return fmt.Errorf("ping failed: %w", err)
	}
	defer func() {
		if cerr := res.Body.Close(); cerr != nil {
			log.Debug("Failed to close ping response body", logger.Error(cerr))
		}
	}()

	if !res.IsError() {
		return nil
	}

	body, readErr := io.ReadAll(res.Body)
	detail := string(body)
	if readErr != nil {
		detail = fmt.Sprintf("error reading response body: %v", readErr)
	}
	log.Debug("Elasticsearch ping returned error",
		logger.String("status", res.Status()),
		logger.String("body", detail))
	return fmt.Errorf("ping returned %s: %s", res.Status(), detail)
}
