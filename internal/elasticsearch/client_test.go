package elasticsearch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/logger"
)

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"http://elasticsearch:9200":  "http://elasticsearch:9200",
		"https://elasticsearch:9200": "https://elasticsearch:9200",
		"elasticsearch:9200":         "http://elasticsearch:9200",
		"localhost":                  "http://localhost",
		"":                           "http://localhost:9200",
	}

	for input, want := range cases {
		if got := normalizeURL(input); got != want {
			t.Errorf("normalizeURL(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuildConfig_CredentialsRequireBothFields(t *testing.T) {
	cfg := buildConfig("http://es:9200", config.ElasticsearchConfig{
		Username:   "elastic",
		MaxRetries: 3,
	})

	if cfg.Username != "" || cfg.Password != "" {
		t.Errorf("credentials set from username alone: %q / %q", cfg.Username, cfg.Password)
	}
	if len(cfg.Addresses) != 1 || cfg.Addresses[0] != "http://es:9200" {
		t.Errorf("unexpected addresses: %v", cfg.Addresses)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
}

func TestBuildConfig_PassesCredentials(t *testing.T) {
	cfg := buildConfig("http://es:9200", config.ElasticsearchConfig{
		Username: "elastic",
		Password: "changeme",
	})

	if cfg.Username != "elastic" || cfg.Password != "changeme" {
		t.Errorf("credentials not carried over: %q / %q", cfg.Username, cfg.Password)
	}
}

func TestNewClient_FailsWhenUnreachable(t *testing.T) {
	// Port 1 on loopback refuses immediately, and MaxRetries 1 keeps
	// the retry loop to a single attempt.
	cfg := config.ElasticsearchConfig{
		URL:        "http://127.0.0.1:1",
		MaxRetries: 1,
		Timeout:    time.Second,
	}

	client, err := NewClient(context.Background(), cfg, logger.NewNop())
	if err == nil {
		t.Fatal("expected connection error for unreachable address")
	}
	if client != nil {
		t.Error("expected nil client on connection failure")
	}
	if !strings.Contains(err.Error(), "failed to connect to Elasticsearch") {
		t.Errorf("unexpected error text: %v", err)
	}
}
