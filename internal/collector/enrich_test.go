package collector_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arassiq/SafeSenior/internal/collector"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
)

func htmlServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPageEnricher_ExtractsArticleText(t *testing.T) {
	srv := htmlServer(t, `<html>
<head><title>Alert</title><script>var tracker = true;</script></head>
<body>
  <nav>Home | Scams | Contact</nav>
  <main>
    <h1>IRS impersonation wave hits retirees</h1>
    <p>Callers posing as IRS agents demand gift card payments immediately.</p>
  </main>
  <footer>Subscribe to our newsletter</footer>
</body>
</html>`)

	enricher := collector.NewPageEnricher(logger.NewNop())
	article := &domain.Article{Title: "IRS impersonation wave hits retirees", URL: srv.URL}

	require.NoError(t, enricher.Enrich(context.Background(), article))
	assert.Contains(t, article.Content, "demand gift card payments")
	assert.NotContains(t, article.Content, "var tracker")
	assert.NotContains(t, article.Content, "Subscribe")
	assert.NotContains(t, article.Content, "Contact")
}

func TestPageEnricher_FallsBackToBody(t *testing.T) {
	srv := htmlServer(t, `<html><body>
<nav>Site navigation</nav>
<p>Seniors warned about lottery prize calls asking for upfront fees.</p>
</body></html>`)

	enricher := collector.NewPageEnricher(logger.NewNop())
	article := &domain.Article{Title: "Lottery warning", URL: srv.URL}

	require.NoError(t, enricher.Enrich(context.Background(), article))
	assert.Contains(t, article.Content, "lottery prize calls")
	assert.NotContains(t, article.Content, "Site navigation")
}

func TestPageEnricher_TruncatesLongPages(t *testing.T) {
	srv := htmlServer(t, "<html><body><main><p>"+strings.Repeat("warning ", 1000)+"</p></main></body></html>")

	enricher := collector.NewPageEnricher(logger.NewNop())
	article := &domain.Article{Title: "Long page", URL: srv.URL}

	require.NoError(t, enricher.Enrich(context.Background(), article))
	assert.NotEmpty(t, article.Content)
	assert.LessOrEqual(t, len(article.Content), 4000)
}

func TestPageEnricher_SkipsArticlesWithContent(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, "<html><body><p>fetched</p></body></html>")
	}))
	defer srv.Close()

	enricher := collector.NewPageEnricher(logger.NewNop())
	article := &domain.Article{Title: "Already enriched", URL: srv.URL, Content: "delivered by the source"}

	require.NoError(t, enricher.Enrich(context.Background(), article))
	assert.Equal(t, "delivered by the source", article.Content)
	assert.Zero(t, requests)
}

func TestPageEnricher_SkipsUnfetchableURL(t *testing.T) {
	enricher := collector.NewPageEnricher(logger.NewNop())
	article := &domain.Article{Title: "Synthetic entry", URL: "perplexity.ai/search"}

	require.NoError(t, enricher.Enrich(context.Background(), article))
	assert.Empty(t, article.Content)
}

func TestPageEnricher_PageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	enricher := collector.NewPageEnricher(logger.NewNop())
	article := &domain.Article{Title: "Gone", URL: srv.URL}

	assert.Error(t, enricher.Enrich(context.Background(), article))
}
