package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/detector"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/errors"
	"github.com/arassiq/SafeSenior/internal/httpclient"
	"github.com/arassiq/SafeSenior/internal/logger"
)

const (
	triggerPath  = "/datasets/v3/trigger"
	progressPath = "/datasets/v3/progress/"
	snapshotPath = "/datasets/v3/snapshot/"

	triggerTimeout = 30 * time.Second

	// SnapshotStatusReady is the provider's terminal status for a
	// snapshot whose results can be downloaded.
	SnapshotStatusReady = "ready"
)

const promptTarget = "https://www.perplexity.ai"

const (
	// Snapshot items shorter than this carry no extractable scam
	// intelligence and are dropped.
	minSnapshotContent = 50
	maxPromptTitleLen  = 60
	maxSummaryLen      = 500
)

// TriggerClient talks to the dataset-trigger provider. A trigger run
// scrapes an AI search engine with elder-scam prompts; results arrive
// asynchronously on the snapshot webhook, or by polling Progress and
// Snapshot when no webhook endpoint is reachable.
type TriggerClient struct {
	cfg    *config.TriggerConfig
	client *http.Client
	logger logger.Logger
}

// NewTriggerClient creates a client for the configured trigger provider.
func NewTriggerClient(cfg *config.TriggerConfig, log logger.Logger) *TriggerClient {
	return &TriggerClient{
		cfg:    cfg,
		client: httpclient.NewClient(&httpclient.Config{Timeout: triggerTimeout}),
		logger: log,
	}
}

// TriggerQuery is one scrape instruction in the trigger payload.
type TriggerQuery struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

// TriggerResponse is the provider's acknowledgement of a trigger run.
type TriggerResponse struct {
	SnapshotID string `json:"snapshot_id"`
	Message    string `json:"message,omitempty"`
}

// SnapshotProgress reports the state of a running collection.
type SnapshotProgress struct {
	SnapshotID string `json:"snapshot_id"`
	Status     string `json:"status"`
}

// SnapshotPayload is the delivery shape for dataset results, identical on
// the webhook and the direct download.
type SnapshotPayload struct {
	SnapshotID string         `json:"snapshot_id"`
	DatasetID  string         `json:"dataset_id,omitempty"`
	Status     string         `json:"status,omitempty"`
	Data       []SnapshotItem `json:"data"`
}

// SnapshotItem is one scraped result inside a snapshot.
type SnapshotItem struct {
	Input   SnapshotInput `json:"input"`
	Content string        `json:"content"`
}

// SnapshotInput echoes the query that produced a snapshot item.
type SnapshotInput struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

// triggerQueries covers the scam families the screener defends against,
// date-stamped so the search engine favours fresh reporting.
func triggerQueries(now time.Time) []TriggerQuery {
	today := now.Format("2006-01-02")
	prompts := []string{
		fmt.Sprintf("Latest elderly scam alerts and fraud warnings %s IRS impersonation Medicare fraud gift card scams", today),
		fmt.Sprintf("Grandparent scams family emergency fraud targeting seniors %s latest news arrests", today),
		fmt.Sprintf("AI voice cloning scams deepfake elderly fraud %s FBI warnings FTC alerts", today),
		fmt.Sprintf("Romance scams targeting elderly online dating fraud %s latest cases prevention tips", today),
		fmt.Sprintf("Tech support scams fake virus alerts elderly targets %s Microsoft impersonation", today),
	}

	queries := make([]TriggerQuery, 0, len(prompts))
	for _, prompt := range prompts {
		queries = append(queries, TriggerQuery{URL: promptTarget, Prompt: prompt})
	}
	return queries
}

// Trigger starts a collection run and returns its snapshot ID.
func (c *TriggerClient) Trigger(ctx context.Context) (*TriggerResponse, error) {
	queries := triggerQueries(time.Now())
	body, err := json.Marshal(queries)
	if err != nil {
		return nil, fmt.Errorf("encode trigger payload: %w", err)
	}

	params := url.Values{}
	params.Set("dataset_id", c.cfg.DatasetID)
	params.Set("include_errors", "true")
	if c.cfg.NotifyURL != "" {
		params.Set("notify", c.cfg.NotifyURL)
	}

	endpoint := c.cfg.BaseURL + triggerPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create trigger request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trigger collection: %w", err)
	}
	defer resp.Body.Close()

	if httpErr := errors.ParseHTTPError(resp); httpErr != nil {
		return nil, httpErr
	}

	var triggered TriggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&triggered); err != nil {
		return nil, fmt.Errorf("decode trigger response: %w", err)
	}

	c.logger.Info("Collection triggered",
		logger.String("snapshot_id", triggered.SnapshotID),
		logger.Int("queries", len(queries)),
		logger.Bool("webhook", c.cfg.NotifyURL != ""))

	return &triggered, nil
}

// Progress reports whether a snapshot has finished collecting.
func (c *TriggerClient) Progress(ctx context.Context, snapshotID string) (*SnapshotProgress, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+progressPath+snapshotID, nil)
	if err != nil {
		return nil, fmt.Errorf("create progress request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check snapshot progress: %w", err)
	}
	defer resp.Body.Close()

	if httpErr := errors.ParseHTTPError(resp); httpErr != nil {
		return nil, httpErr
	}

	var progress SnapshotProgress
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		return nil, fmt.Errorf("decode progress response: %w", err)
	}
	return &progress, nil
}

// Snapshot downloads the results of a ready snapshot. The download body
// is a bare item array; it is wrapped into the webhook delivery shape so
// both paths feed the same ingestion code.
func (c *TriggerClient) Snapshot(ctx context.Context, snapshotID string) (*SnapshotPayload, error) {
	endpoint := c.cfg.BaseURL + snapshotPath + snapshotID + "?format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create snapshot request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download snapshot: %w", err)
	}
	defer resp.Body.Close()

	if httpErr := errors.ParseHTTPError(resp); httpErr != nil {
		return nil, httpErr
	}

	var items []SnapshotItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode snapshot items: %w", err)
	}

	return &SnapshotPayload{SnapshotID: snapshotID, Data: items}, nil
}

// SnapshotArticles converts scraped snapshot items into articles. The
// prompt that produced an item decides its scam category; indicators come
// from the scraped content itself.
func SnapshotArticles(payload *SnapshotPayload, now time.Time) []domain.Article {
	articles := make([]domain.Article, 0, len(payload.Data))
	for _, item := range payload.Data {
		if len(item.Content) <= minSnapshotContent {
			continue
		}

		summary := item.Content
		if len(summary) > maxSummaryLen {
			summary = summary[:maxSummaryLen] + "..."
		}

		scamType, urgency := promptScamType(item.Input.Prompt)

		articles = append(articles, domain.Article{
			Title:           "AI-Analyzed: " + clipBytes(item.Input.Prompt, maxPromptTitleLen) + "...",
			Description:     summary,
			URL:             "perplexity.ai/search",
			Source:          "perplexity",
			ScamType:        scamType,
			Urgency:         urgency,
			ElderlySpecific: true,
			Indicators:      detector.ExtractIndicators(item.Content),
			PublishedAt:     now,
		})
	}
	return articles
}

// promptScamType maps a trigger prompt back to the scam family it
// searched for. Romance scams have no category of their own and fold
// into general fraud at high urgency.
func promptScamType(prompt string) (domain.ScamType, domain.Urgency) {
	words := normalizeWords(prompt)
	switch {
	case hasAnyMarker(words, []string{"irs"}):
		return domain.ScamTypeIRS, domain.UrgencyCritical
	case hasAnyMarker(words, []string{"grandparent", "family"}):
		return domain.ScamTypeGrandparent, domain.UrgencyHigh
	case hasAnyMarker(words, []string{"romance"}):
		return domain.ScamTypeGeneralFraud, domain.UrgencyHigh
	case hasAnyMarker(words, []string{"tech", "virus"}):
		return domain.ScamTypeTechSupport, domain.UrgencyMedium
	case hasAnyMarker(words, []string{"medicare"}):
		return domain.ScamTypeMedicare, domain.UrgencyHigh
	default:
		return domain.ScamTypeGeneralFraud, domain.UrgencyMedium
	}
}

func clipBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
