package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/errors"
	"github.com/arassiq/SafeSenior/internal/httpclient"
	"github.com/arassiq/SafeSenior/internal/logger"
)

const (
	newsAPIBaseURL = "https://newsapi.org/v2/everything"
	newsAPITimeout = 30 * time.Second
)

// NewsAPISource queries the NewsAPI everything endpoint for elder-scam
// coverage published in the last day.
type NewsAPISource struct {
	apiKey   string
	query    string
	pageSize int
	baseURL  string
	client   *http.Client
	logger   logger.Logger
}

// NewNewsAPISource creates the NewsAPI article source.
func NewNewsAPISource(cfg *config.NewsAPIConfig, log logger.Logger) *NewsAPISource {
	return &NewsAPISource{
		apiKey:   cfg.APIKey,
		query:    cfg.Query,
		pageSize: cfg.PageSize,
		baseURL:  newsAPIBaseURL,
		client:   httpclient.NewClient(&httpclient.Config{Timeout: newsAPITimeout}),
		logger:   log,
	}
}

// Name identifies this source in logs and metrics.
func (s *NewsAPISource) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code,omitempty"`
	Message      string           `json:"message,omitempty"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source      newsAPIOutlet `json:"source"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	PublishedAt time.Time     `json:"publishedAt"`
}

type newsAPIOutlet struct {
	Name string `json:"name"`
}

// Fetch returns yesterday-and-newer articles matching the configured
// elder-scam query, newest first.
func (s *NewsAPISource) Fetch(ctx context.Context) ([]domain.Article, error) {
	from := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	params := url.Values{}
	params.Set("q", s.query)
	params.Set("from", from)
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(s.pageSize))
	params.Set("apiKey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create newsapi request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query newsapi: %w", err)
	}
	defer resp.Body.Close()

	if httpErr := errors.ParseHTTPError(resp); httpErr != nil {
		return nil, httpErr
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi returned status %q: %s", payload.Status, payload.Message)
	}

	articles := make([]domain.Article, 0, len(payload.Articles))
	for _, item := range payload.Articles {
		if item.Title == "" || item.URL == "" {
			continue
		}

		source := item.Source.Name
		if source == "" {
			source = s.Name()
		}

		articles = append(articles, domain.Article{
			Title:       item.Title,
			Description: item.Description,
			URL:         item.URL,
			Source:      source,
			PublishedAt: item.PublishedAt,
		})
	}

	s.logger.Debug("NewsAPI fetch complete",
		logger.Int("total_results", payload.TotalResults),
		logger.Int("articles", len(articles)))

	return articles, nil
}
