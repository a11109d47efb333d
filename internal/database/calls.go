package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arassiq/SafeSenior/internal/domain"
)

// CallRepository is the durable archive of screened calls. Live call state
// is served from the call store; rows here survive the store's TTL.
type CallRepository struct {
	db *sql.DB
}

// NewCallRepository creates a new call repository.
func NewCallRepository(db *sql.DB) *CallRepository {
	return &CallRepository{db: db}
}

// Upsert inserts or updates a call record. Calls are written once at
// intake and again when screening completes, so conflicts update in place.
func (r *CallRepository) Upsert(ctx context.Context, call *domain.Call) error {
	var resultJSON []byte
	var riskScore float64
	var isScam bool

	if call.Result != nil {
		encoded, err := json.Marshal(call.Result)
		if err != nil {
			return fmt.Errorf("marshal screening result: %w", err)
		}
		resultJSON = encoded
		riskScore = call.Result.RiskScore
		isScam = call.Result.IsScam
	}

	query := `
		INSERT INTO calls (
			id, caller_number, transcript, status, risk_score, is_scam,
			result, started_at, screened_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			transcript = EXCLUDED.transcript,
			status = EXCLUDED.status,
			risk_score = EXCLUDED.risk_score,
			is_scam = EXCLUDED.is_scam,
			result = EXCLUDED.result,
			screened_at = EXCLUDED.screened_at
	`

	_, err := r.db.ExecContext(ctx,
		query,
		call.ID,
		call.CallerNumber,
		call.Transcript,
		call.Status,
		riskScore,
		isScam,
		resultJSON,
		call.StartedAt,
		call.ScreenedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert call: %w", err)
	}

	return nil
}

// GetByID retrieves a call by its ID.
func (r *CallRepository) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	query := `
		SELECT id, caller_number, transcript, status, result, started_at, screened_at
		FROM calls
		WHERE id = $1
	`

	call, err := scanCall(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("call %s: %w", id, domain.ErrCallNotFound)
		}
		return nil, fmt.Errorf("query call: %w", err)
	}

	return call, nil
}

// CountByStatus returns the number of calls per status.
func (r *CallRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM calls
		GROUP BY status
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count calls by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("scan status count: %w", scanErr)
		}
		counts[status] = count
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate status counts: %w", rowsErr)
	}

	return counts, nil
}

func scanCall(row *sql.Row) (*domain.Call, error) {
	var call domain.Call
	var resultJSON []byte
	var screenedAt sql.NullTime

	if err := row.Scan(
		&call.ID,
		&call.CallerNumber,
		&call.Transcript,
		&call.Status,
		&resultJSON,
		&call.StartedAt,
		&screenedAt,
	); err != nil {
		return nil, err
	}

	if screenedAt.Valid {
		t := screenedAt.Time
		call.ScreenedAt = &t
	}

	if len(resultJSON) > 0 {
		var result domain.ScreeningResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("unmarshal screening result: %w", err)
		}
		call.Result = &result
	}

	return &call, nil
}
