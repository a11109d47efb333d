package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
)

// ArticleRepository persists collected scam articles. The knowledge index
// is rebuilt from these rows when the in-memory index starts cold.
type ArticleRepository struct {
	db     *sql.DB
	logger logger.Logger
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *sql.DB, log logger.Logger) *ArticleRepository {
	return &ArticleRepository{
		db:     db,
		logger: log,
	}
}

// UpsertBatch upserts articles in a single transaction and reports how
// many were created versus updated. A failed upsert rolls back the batch.
func (r *ArticleRepository) UpsertBatch(ctx context.Context, articles []domain.Article) (created, updated int, err error) {
	if len(articles) == 0 {
		return 0, 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("failed to rollback article batch",
					logger.Error(rbErr),
				)
			}
		}
	}()

	for i := range articles {
		isCreated, upsertErr := r.upsert(ctx, tx, &articles[i])
		if upsertErr != nil {
			err = fmt.Errorf("upsert article %q: %w", articles[i].Title, upsertErr)
			return 0, 0, err
		}
		if isCreated {
			created++
		} else {
			updated++
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = fmt.Errorf("commit transaction: %w", commitErr)
		return 0, 0, err
	}

	return created, updated, nil
}

// upsert inserts or updates one article within an existing transaction.
// Returns true if the article was created, false if it already existed.
// Uses ON CONFLICT with the xmax trick to distinguish insert from update.
func (r *ArticleRepository) upsert(ctx context.Context, tx *sql.Tx, article *domain.Article) (bool, error) {
	if article.ID == "" {
		article.ID = article.GenerateID()
	}

	query := `
		INSERT INTO articles (
			id, title, description, content, url, source, scam_type,
			urgency, elderly_specific, indicators, published_at, collected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			description = EXCLUDED.description,
			content = EXCLUDED.content,
			scam_type = EXCLUDED.scam_type,
			urgency = EXCLUDED.urgency,
			elderly_specific = EXCLUDED.elderly_specific,
			indicators = EXCLUDED.indicators,
			collected_at = EXCLUDED.collected_at
		RETURNING (xmax = 0) AS is_insert
	`

	var isInsert bool
	err := tx.QueryRowContext(ctx,
		query,
		article.ID,
		article.Title,
		article.Description,
		article.Content,
		article.URL,
		article.Source,
		article.ScamType,
		article.Urgency,
		article.ElderlySpecific,
		pq.Array(article.Indicators),
		article.PublishedAt,
		article.CollectedAt,
	).Scan(&isInsert)
	if err != nil {
		return false, fmt.Errorf("upsert article: %w", err)
	}

	return isInsert, nil
}

// Recent retrieves articles ordered by publication date, newest first.
func (r *ArticleRepository) Recent(ctx context.Context, limit int) ([]domain.Article, error) {
	query := `
		SELECT id, title, description, content, url, source, scam_type,
		       urgency, elderly_specific, indicators, published_at, collected_at
		FROM articles
		ORDER BY published_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]domain.Article, 0)
	for rows.Next() {
		var article domain.Article
		if scanErr := rows.Scan(
			&article.ID,
			&article.Title,
			&article.Description,
			&article.Content,
			&article.URL,
			&article.Source,
			&article.ScamType,
			&article.Urgency,
			&article.ElderlySpecific,
			pq.Array(&article.Indicators),
			&article.PublishedAt,
			&article.CollectedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan article: %w", scanErr)
		}
		articles = append(articles, article)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate articles: %w", rowsErr)
	}

	return articles, nil
}

// Count returns the total number of stored articles.
func (r *ArticleRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}
