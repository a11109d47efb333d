package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/errors"
	"github.com/arassiq/SafeSenior/internal/logger"
)

func newsAPITestConfig() *config.NewsAPIConfig {
	return &config.NewsAPIConfig{
		APIKey:   "test-key",
		Query:    "elderly scam OR senior fraud",
		PageSize: 20,
	}
}

func TestNewsAPISource_Fetch(t *testing.T) {
	var captured url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"status": "ok",
			"totalResults": 2,
			"articles": [
				{
					"source": {"name": "TechNews Daily"},
					"title": "Tech Support Scams Target Seniors",
					"description": "Fake virus warnings aimed at users over 65.",
					"url": "https://example.com/tech-support",
					"publishedAt": "2026-08-22T12:00:00Z"
				},
				{
					"source": {"name": ""},
					"title": "Article without a link",
					"description": "",
					"url": "",
					"publishedAt": "2026-08-22T13:00:00Z"
				}
			]
		}`)
	}))
	defer srv.Close()

	source := NewNewsAPISource(newsAPITestConfig(), logger.NewNop())
	source.baseURL = srv.URL

	articles, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1, "articles without a URL are dropped")

	article := articles[0]
	assert.Equal(t, "Tech Support Scams Target Seniors", article.Title)
	assert.Equal(t, "Fake virus warnings aimed at users over 65.", article.Description)
	assert.Equal(t, "https://example.com/tech-support", article.URL)
	assert.Equal(t, "TechNews Daily", article.Source)
	assert.True(t, article.PublishedAt.Equal(time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)))

	assert.Equal(t, "elderly scam OR senior fraud", captured.Get("q"))
	assert.Equal(t, "publishedAt", captured.Get("sortBy"))
	assert.Equal(t, "en", captured.Get("language"))
	assert.Equal(t, "20", captured.Get("pageSize"))
	assert.Equal(t, "test-key", captured.Get("apiKey"))

	_, err = time.Parse("2006-01-02", captured.Get("from"))
	assert.NoError(t, err, "from must be a plain date")
}

func TestNewsAPISource_FallsBackToSourceName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"status": "ok",
			"totalResults": 1,
			"articles": [
				{
					"source": {"name": ""},
					"title": "Unattributed wire story",
					"url": "https://example.com/wire",
					"publishedAt": "2026-08-22T09:00:00Z"
				}
			]
		}`)
	}))
	defer srv.Close()

	source := NewNewsAPISource(newsAPITestConfig(), logger.NewNop())
	source.baseURL = srv.URL

	articles, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "newsapi", articles[0].Source)
}

func TestNewsAPISource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "error", "code": "apiKeyInvalid", "message": "Your API key is invalid."}`)
	}))
	defer srv.Close()

	source := NewNewsAPISource(newsAPITestConfig(), logger.NewNop())
	source.baseURL = srv.URL

	_, err := source.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Your API key is invalid.")
}

func TestNewsAPISource_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"status": "error", "message": "rate limited"}`)
	}))
	defer srv.Close()

	source := NewNewsAPISource(newsAPITestConfig(), logger.NewNop())
	source.baseURL = srv.URL

	_, err := source.Fetch(context.Background())
	require.Error(t, err)

	var httpErr *errors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}
