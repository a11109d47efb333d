package collector_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arassiq/SafeSenior/internal/collector"
	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
)

func triggerTestConfig(baseURL string) *config.TriggerConfig {
	return &config.TriggerConfig{
		BaseURL:   baseURL,
		APIKey:    "trigger-key",
		DatasetID: "ds_elder_scams",
		NotifyURL: "https://collector.example.com/webhook/snapshot",
	}
}

func TestTriggerClient_Trigger(t *testing.T) {
	var (
		gotPath    string
		gotQuery   map[string]string
		gotAuth    string
		gotType    string
		gotQueries []collector.TriggerQuery
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"dataset_id":     r.URL.Query().Get("dataset_id"),
			"include_errors": r.URL.Query().Get("include_errors"),
			"notify":         r.URL.Query().Get("notify"),
		}
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotQueries))

		fmt.Fprint(w, `{"snapshot_id": "s_abc123", "message": "Collection started"}`)
	}))
	defer srv.Close()

	client := collector.NewTriggerClient(triggerTestConfig(srv.URL), logger.NewNop())

	resp, err := client.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s_abc123", resp.SnapshotID)

	assert.Equal(t, "/datasets/v3/trigger", gotPath)
	assert.Equal(t, "ds_elder_scams", gotQuery["dataset_id"])
	assert.Equal(t, "true", gotQuery["include_errors"])
	assert.Equal(t, "https://collector.example.com/webhook/snapshot", gotQuery["notify"])
	assert.Equal(t, "Bearer trigger-key", gotAuth)
	assert.Equal(t, "application/json", gotType)

	require.Len(t, gotQueries, 5, "one prompt per scam family")
	today := time.Now().Format("2006-01-02")
	for _, q := range gotQueries {
		assert.Equal(t, "https://www.perplexity.ai", q.URL)
		assert.Contains(t, q.Prompt, today, "prompts are date-stamped")
	}
	assert.Contains(t, gotQueries[0].Prompt, "IRS impersonation Medicare fraud gift card scams")
	assert.Contains(t, gotQueries[1].Prompt, "Grandparent scams family emergency fraud")
}

func TestTriggerClient_Trigger_NoWebhookConfigured(t *testing.T) {
	var hasNotify bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasNotify = r.URL.Query().Has("notify")
		fmt.Fprint(w, `{"snapshot_id": "s_nohook"}`)
	}))
	defer srv.Close()

	cfg := triggerTestConfig(srv.URL)
	cfg.NotifyURL = ""
	client := collector.NewTriggerClient(cfg, logger.NewNop())

	_, err := client.Trigger(context.Background())
	require.NoError(t, err)
	assert.False(t, hasNotify, "no notify parameter without a webhook endpoint")
}

func TestTriggerClient_Progress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datasets/v3/progress/s_abc123", r.URL.Path)
		assert.Equal(t, "Bearer trigger-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"snapshot_id": "s_abc123", "status": "running"}`)
	}))
	defer srv.Close()

	client := collector.NewTriggerClient(triggerTestConfig(srv.URL), logger.NewNop())

	progress, err := client.Progress(context.Background(), "s_abc123")
	require.NoError(t, err)
	assert.Equal(t, "running", progress.Status)
}

func TestTriggerClient_Snapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datasets/v3/snapshot/s_abc123", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		fmt.Fprint(w, `[
			{
				"input": {"url": "https://www.perplexity.ai", "prompt": "Latest elderly scam alerts"},
				"content": "Authorities warn that IRS impersonators now demand gift card payments over the phone."
			}
		]`)
	}))
	defer srv.Close()

	client := collector.NewTriggerClient(triggerTestConfig(srv.URL), logger.NewNop())

	payload, err := client.Snapshot(context.Background(), "s_abc123")
	require.NoError(t, err)
	assert.Equal(t, "s_abc123", payload.SnapshotID)
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "Latest elderly scam alerts", payload.Data[0].Input.Prompt)
}

func TestSnapshotArticles(t *testing.T) {
	longPrompt := "Latest elderly scam alerts and fraud warnings 2026-08-23 IRS impersonation Medicare fraud gift card scams"
	longContent := strings.Repeat("Callers claiming to be IRS agents demand gift card payments from retirees across the country. ", 6)
	shortContent := strings.Repeat("a", 51)

	now := time.Date(2026, 8, 23, 15, 0, 0, 0, time.UTC)
	payload := &collector.SnapshotPayload{
		SnapshotID: "s_abc123",
		Data: []collector.SnapshotItem{
			{Input: collector.SnapshotInput{Prompt: "ignored"}, Content: "way too thin"},
			{Input: collector.SnapshotInput{Prompt: longPrompt}, Content: longContent},
			{Input: collector.SnapshotInput{Prompt: "What changed today"}, Content: shortContent},
		},
	}

	articles := collector.SnapshotArticles(payload, now)
	require.Len(t, articles, 2, "items under the content floor are dropped")

	irs := articles[0]
	assert.Equal(t, "AI-Analyzed: Latest elderly scam alerts and fraud warnings 2026-08-23 IRS...", irs.Title)
	assert.Equal(t, longContent[:500]+"...", irs.Description)
	assert.Equal(t, "perplexity.ai/search", irs.URL)
	assert.Equal(t, "perplexity", irs.Source)
	assert.Equal(t, domain.ScamTypeIRS, irs.ScamType)
	assert.Equal(t, domain.UrgencyCritical, irs.Urgency)
	assert.True(t, irs.ElderlySpecific)
	assert.Contains(t, irs.Indicators, "gift card payment demand")
	assert.Contains(t, irs.Indicators, "IRS impersonation")
	assert.True(t, irs.PublishedAt.Equal(now))

	plain := articles[1]
	assert.Equal(t, shortContent, plain.Description, "short summaries are kept whole")
	assert.Equal(t, domain.ScamTypeGeneralFraud, plain.ScamType)
	assert.Equal(t, domain.UrgencyMedium, plain.Urgency)
}

func TestSnapshotArticles_PromptFamilies(t *testing.T) {
	content := strings.Repeat("Reported cases keep climbing according to state attorneys general. ", 2)

	tests := []struct {
		name     string
		prompt   string
		scamType domain.ScamType
		urgency  domain.Urgency
	}{
		{
			name:     "irs prompt",
			prompt:   "Latest elderly scam alerts and fraud warnings 2026-08-23 IRS impersonation Medicare fraud gift card scams",
			scamType: domain.ScamTypeIRS,
			urgency:  domain.UrgencyCritical,
		},
		{
			name:     "grandparent prompt",
			prompt:   "Grandparent scams family emergency fraud targeting seniors 2026-08-23 latest news arrests",
			scamType: domain.ScamTypeGrandparent,
			urgency:  domain.UrgencyHigh,
		},
		{
			name:     "romance prompt folds into general fraud",
			prompt:   "Romance scams targeting elderly online dating fraud 2026-08-23 latest cases prevention tips",
			scamType: domain.ScamTypeGeneralFraud,
			urgency:  domain.UrgencyHigh,
		},
		{
			name:     "tech support prompt despite impersonation wording",
			prompt:   "Tech support scams fake virus alerts elderly targets 2026-08-23 Microsoft impersonation",
			scamType: domain.ScamTypeTechSupport,
			urgency:  domain.UrgencyMedium,
		},
		{
			name:     "medicare prompt",
			prompt:   "Medicare open enrollment fraud calls 2026-08-23 card replacement offers",
			scamType: domain.ScamTypeMedicare,
			urgency:  domain.UrgencyHigh,
		},
		{
			name:     "unrecognized prompt",
			prompt:   "Consumer complaints roundup 2026-08-23",
			scamType: domain.ScamTypeGeneralFraud,
			urgency:  domain.UrgencyMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := &collector.SnapshotPayload{
				Data: []collector.SnapshotItem{
					{Input: collector.SnapshotInput{Prompt: tt.prompt}, Content: content},
				},
			}

			articles := collector.SnapshotArticles(payload, time.Now().UTC())
			require.Len(t, articles, 1)
			assert.Equal(t, tt.scamType, articles[0].ScamType)
			assert.Equal(t, tt.urgency, articles[0].Urgency)
		})
	}
}
