package collector

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
)

const (
	enrichUserAgent = "SafeSenior-Collector/1.0"
	enrichTimeout   = 15 * time.Second
	// maxContentLen bounds stored page text; the knowledge index scores
	// on titles and summaries, the content is supporting detail.
	maxContentLen = 4000
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// PageEnricher fetches an article's page and extracts its readable text,
// for feeds that only deliver a one-line summary.
type PageEnricher struct {
	logger logger.Logger
}

// NewPageEnricher creates a page enricher.
func NewPageEnricher(log logger.Logger) *PageEnricher {
	return &PageEnricher{logger: log}
}

// Enrich fills the article's Content from its page. Articles that
// already carry content, or whose URL is not fetchable, are left alone.
func (p *PageEnricher) Enrich(ctx context.Context, article *domain.Article) error {
	if article.Content != "" {
		return nil
	}
	if !strings.HasPrefix(article.URL, "http://") && !strings.HasPrefix(article.URL, "https://") {
		return nil
	}

	c := colly.NewCollector(
		colly.UserAgent(enrichUserAgent),
		colly.IgnoreRobotsTxt(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(enrichTimeout)

	var content string
	c.OnHTML("html", func(e *colly.HTMLElement) {
		content = extractReadableText(e.DOM)
	})

	if err := c.Visit(article.URL); err != nil {
		return fmt.Errorf("fetch article page: %w", err)
	}

	if content == "" {
		p.logger.Debug("Page yielded no text", logger.String("url", article.URL))
		return nil
	}

	article.Content = content
	return nil
}

// extractReadableText pulls the article text out of a page, preferring
// the semantic content containers and falling back to the whole body.
func extractReadableText(doc *goquery.Selection) string {
	for _, container := range []string{"main", "article", "body"} {
		sel := doc.Find(container).First()
		if sel.Length() == 0 {
			continue
		}
		stripChrome(sel)
		if text := cleanPageText(sel.Text()); text != "" {
			return text
		}
	}
	return ""
}

// stripChrome removes the page furniture that pollutes extracted text.
func stripChrome(sel *goquery.Selection) {
	sel.Find("script, style, nav, header, footer, aside, form").Remove()
}

func cleanPageText(text string) string {
	text = whitespaceRE.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if len(text) > maxContentLen {
		cut := maxContentLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
