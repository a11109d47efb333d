// Package collector gathers scam-news articles from outside providers,
// normalizes them, and feeds them into the knowledge index that backs
// call screening.
package collector

import (
	"context"

	"github.com/arassiq/SafeSenior/internal/domain"
)

// Source is one provider of scam-news articles. Implementations return
// whatever they currently have; deduplication, classification, and
// persistence happen downstream in the Collector.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Fetch returns the articles currently available from the source.
	Fetch(ctx context.Context) ([]domain.Article, error)
}
