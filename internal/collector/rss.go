package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
)

// RSSSource reads consumer-protection feeds (FTC, AARP, FBI) for scam
// alerts. A failing feed is skipped so one outage never empties the run.
type RSSSource struct {
	feeds  []string
	parser *gofeed.Parser
	logger logger.Logger
}

// NewRSSSource creates the RSS article source over the configured feeds.
func NewRSSSource(cfg *config.RSSConfig, log logger.Logger) *RSSSource {
	return &RSSSource{
		feeds:  cfg.Feeds,
		parser: gofeed.NewParser(),
		logger: log,
	}
}

// Name identifies this source in logs and metrics.
func (s *RSSSource) Name() string { return "rss" }

// Fetch parses every configured feed and returns their items as articles.
// It fails only when every feed fails.
func (s *RSSSource) Fetch(ctx context.Context) ([]domain.Article, error) {
	var (
		articles []domain.Article
		lastErr  error
	)

	for _, feedURL := range s.feeds {
		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			lastErr = err
			s.logger.Error("RSS feed fetch failed",
				logger.String("feed", feedURL),
				logger.Error(err))
			continue
		}

		source := feed.Title
		if source == "" {
			source = feedURL
		}

		for _, item := range feed.Items {
			if item.Link == "" || item.Title == "" {
				continue
			}

			published := time.Now().UTC()
			if item.PublishedParsed != nil {
				published = *item.PublishedParsed
			}

			articles = append(articles, domain.Article{
				Title:       item.Title,
				Description: item.Description,
				URL:         item.Link,
				Source:      source,
				PublishedAt: published,
			})
		}
	}

	if len(articles) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all %d feeds failed, last: %w", len(s.feeds), lastErr)
	}
	return articles, nil
}
