package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
)

// scorePivot converts unbounded BM25 scores into 0..1 via s/(s+pivot).
// A raw score equal to the pivot normalizes to 0.5, the match threshold.
const scorePivot = 2.0

// ElasticsearchIndex is the production Index backed by an ES index of
// collected scam articles.
type ElasticsearchIndex struct {
	client *es.Client
	index  string
	logger logger.Logger
}

// NewElasticsearchIndex creates an article index on the given ES index name.
func NewElasticsearchIndex(client *es.Client, index string, log logger.Logger) *ElasticsearchIndex {
	return &ElasticsearchIndex{
		client: client,
		index:  index,
		logger: log,
	}
}

// articleMapping keeps filterable fields as keywords and leaves the
// matched text fields analyzed.
var articleMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":               map[string]any{"type": "keyword"},
			"title":            map[string]any{"type": "text"},
			"description":      map[string]any{"type": "text"},
			"content":          map[string]any{"type": "text"},
			"url":              map[string]any{"type": "keyword"},
			"source":           map[string]any{"type": "keyword"},
			"scam_type":        map[string]any{"type": "keyword"},
			"urgency":          map[string]any{"type": "keyword"},
			"elderly_specific": map[string]any{"type": "boolean"},
			"indicators":       map[string]any{"type": "text"},
			"published_at":     map[string]any{"type": "date"},
			"collected_at":     map[string]any{"type": "date"},
		},
	},
}

// EnsureIndex creates the article index with its mapping if it does not exist.
func (s *ElasticsearchIndex) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		if res.IsError() {
			return fmt.Errorf("check index %s: %s", s.index, res.String())
		}
		return nil
	}

	body, err := json.Marshal(articleMapping)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	createRes, err := s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
		s.client.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		raw, _ := io.ReadAll(createRes.Body)
		return fmt.Errorf("create index %s: %s", s.index, string(raw))
	}

	s.logger.Info("created knowledge index", logger.String("index", s.index))
	return nil
}

// Add indexes articles one document per article, keyed by article ID so
// re-collected articles overwrite instead of duplicating.
func (s *ElasticsearchIndex) Add(ctx context.Context, articles []domain.Article) error {
	for i := range articles {
		article := &articles[i]
		if article.ID == "" {
			article.ID = article.GenerateID()
		}

		doc, err := json.Marshal(article)
		if err != nil {
			return fmt.Errorf("marshal article %s: %w", article.ID, err)
		}

		res, err := s.client.Index(s.index, bytes.NewReader(doc),
			s.client.Index.WithContext(ctx),
			s.client.Index.WithDocumentID(article.ID))
		if err != nil {
			return fmt.Errorf("index article %s: %w", article.ID, err)
		}
		if res.IsError() {
			err = fmt.Errorf("index article %s: %s", article.ID, res.String())
		}
		res.Body.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// Query runs a multi_match over the article text fields and normalizes
// the BM25 scores to 0..1.
func (s *ElasticsearchIndex) Query(ctx context.Context, text string, topK int) ([]Hit, error) {
	esQuery := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  text,
				"fields": []string{"title^2", "description", "content", "indicators^3"},
			},
		},
		"size": topK,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", s.index, res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Score  float64        `json:"_score"`
				Source domain.Article `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		hits = append(hits, Hit{
			Article: h.Source,
			Score:   normalizeScore(h.Score),
		})
	}
	return hits, nil
}

// Recent returns the newest articles by publication date.
func (s *ElasticsearchIndex) Recent(ctx context.Context, limit int) ([]domain.Article, error) {
	esQuery := map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"sort": []map[string]any{
			{"published_at": map[string]any{"order": "desc"}},
		},
		"size": limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", s.index, res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source domain.Article `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	articles := make([]domain.Article, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		articles = append(articles, h.Source)
	}
	return articles, nil
}

// Count reports the number of indexed articles.
func (s *ElasticsearchIndex) Count(ctx context.Context) (int, error) {
	res, err := s.client.Count(
		s.client.Count.WithContext(ctx),
		s.client.Count.WithIndex(s.index),
	)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("count %s: %s", s.index, res.String())
	}

	var countResponse struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&countResponse); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return countResponse.Count, nil
}

func normalizeScore(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	return raw / (raw + scorePivot)
}
