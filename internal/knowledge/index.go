// Package knowledge maintains the scam-article index that corroborates
// transcript screening, and answers risk queries against it.
package knowledge

import (
	"context"

	"github.com/arassiq/SafeSenior/internal/domain"
)

// Hit is one scored match from an index query. Scores are normalized to 0..1.
type Hit struct {
	Article domain.Article
	Score   float64
}

// Index stores collected scam articles and matches transcripts against them.
type Index interface {
	// Add indexes articles, overwriting any existing document with the same ID.
	Add(ctx context.Context, articles []domain.Article) error
	// Query returns the topK best matches for the text, best first.
	Query(ctx context.Context, text string, topK int) ([]Hit, error)
	// Recent returns up to limit articles, newest published first.
	Recent(ctx context.Context, limit int) ([]domain.Article, error)
	// Count reports how many articles the index holds.
	Count(ctx context.Context) (int, error)
}
