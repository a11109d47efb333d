package knowledge

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/arassiq/SafeSenior/internal/domain"
)

// stopwords are excluded from overlap scoring; they match every transcript.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "you": true, "your": true,
	"this": true, "that": true, "from": true, "with": true, "are": true,
	"was": true, "has": true, "have": true, "will": true, "not": true,
}

// MemoryIndex is the demo-mode Index: token overlap against article text,
// no external services. The screener falls back to it when Elasticsearch
// is not configured.
type MemoryIndex struct {
	mu       sync.RWMutex
	articles map[string]domain.Article
}

// NewMemoryIndex creates an empty in-process article index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{articles: make(map[string]domain.Article)}
}

// Add stores articles keyed by ID, overwriting duplicates.
func (m *MemoryIndex) Add(_ context.Context, articles []domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, article := range articles {
		if article.ID == "" {
			article.ID = article.GenerateID()
		}
		m.articles[article.ID] = article
	}
	return nil
}

// Query scores every article by the share of its tokens found in the text.
// An article whose search text is fully contained in the transcript scores 1.0.
func (m *MemoryIndex) Query(_ context.Context, text string, topK int) ([]Hit, error) {
	queryTokens := tokenize(text)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.articles))
	for _, article := range m.articles {
		tokens := tokenize(article.SearchText())
		if len(tokens) == 0 {
			continue
		}

		matched := 0
		for token := range tokens {
			if queryTokens[token] {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		hits = append(hits, Hit{
			Article: article,
			Score:   float64(matched) / float64(len(tokens)),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Article.ID < hits[j].Article.ID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Recent returns articles newest published first.
func (m *MemoryIndex) Recent(_ context.Context, limit int) ([]domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	articles := make([]domain.Article, 0, len(m.articles))
	for _, article := range m.articles {
		articles = append(articles, article)
	}

	sort.Slice(articles, func(i, j int) bool {
		if !articles[i].PublishedAt.Equal(articles[j].PublishedAt) {
			return articles[i].PublishedAt.After(articles[j].PublishedAt)
		}
		return articles[i].ID < articles[j].ID
	})

	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

// Count reports the number of stored articles.
func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.articles), nil
}

func tokenize(text string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		tokens[f] = true
	}
	return tokens
}
