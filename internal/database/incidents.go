package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arassiq/SafeSenior/internal/domain"
)

// IncidentRepository persists the immutable audit log of screening
// interventions. Rows are never updated or deleted.
type IncidentRepository struct {
	db *sql.DB
}

// NewIncidentRepository creates a new incident repository.
func NewIncidentRepository(db *sql.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// IncidentStats represents aggregate incident statistics.
type IncidentStats struct {
	Total        int            `json:"total"`
	AvgRiskScore float64        `json:"avg_risk_score"`
	ByType       map[string]int `json:"by_type"`
	ByScamType   map[string]int `json:"by_scam_type"`
}

// Create inserts a new incident record and fills in its generated ID and
// creation time.
func (r *IncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (
			call_id, caller_number, incident_type, risk_score, scam_type,
			action, details, transcript
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx,
		query,
		incident.CallID,
		incident.CallerNumber,
		incident.Type,
		incident.RiskScore,
		incident.ScamType,
		incident.Action,
		incident.Details,
		incident.Transcript,
	).Scan(&incident.ID, &incident.CreatedAt)
	if err != nil {
		return fmt.Errorf("create incident: %w", err)
	}

	return nil
}

// List retrieves incidents newest first, optionally filtered by type.
func (r *IncidentRepository) List(ctx context.Context, incidentType string, limit, offset int) ([]*domain.Incident, error) {
	var query string
	var args []any

	if incidentType != "" {
		query = `
			SELECT id, call_id, caller_number, incident_type, risk_score,
			       scam_type, action, details, transcript, created_at
			FROM incidents
			WHERE incident_type = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`
		args = []any{incidentType, limit, offset}
	} else {
		query = `
			SELECT id, call_id, caller_number, incident_type, risk_score,
			       scam_type, action, details, transcript, created_at
			FROM incidents
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`
		args = []any{limit, offset}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*domain.Incident, 0)
	for rows.Next() {
		var incident domain.Incident
		if scanErr := rows.Scan(
			&incident.ID,
			&incident.CallID,
			&incident.CallerNumber,
			&incident.Type,
			&incident.RiskScore,
			&incident.ScamType,
			&incident.Action,
			&incident.Details,
			&incident.Transcript,
			&incident.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan incident: %w", scanErr)
		}
		incidents = append(incidents, &incident)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate incidents: %w", rowsErr)
	}

	return incidents, nil
}

// Stats retrieves aggregate incident statistics.
func (r *IncidentRepository) Stats(ctx context.Context) (*IncidentStats, error) {
	stats := &IncidentStats{
		ByType:     make(map[string]int),
		ByScamType: make(map[string]int),
	}

	query := `
		SELECT COUNT(*) AS total, COALESCE(AVG(risk_score), 0) AS avg_risk_score
		FROM incidents
	`

	err := r.db.QueryRowContext(ctx, query).Scan(&stats.Total, &stats.AvgRiskScore)
	if err != nil {
		return nil, fmt.Errorf("get incident stats: %w", err)
	}

	if err := r.countInto(ctx, stats.ByType, `
		SELECT incident_type, COUNT(*) AS count
		FROM incidents
		GROUP BY incident_type
	`); err != nil {
		return nil, fmt.Errorf("get incident type distribution: %w", err)
	}

	if err := r.countInto(ctx, stats.ByScamType, `
		SELECT scam_type, COUNT(*) AS count
		FROM incidents
		WHERE scam_type <> ''
		GROUP BY scam_type
	`); err != nil {
		return nil, fmt.Errorf("get scam type distribution: %w", err)
	}

	return stats, nil
}

// countInto runs a two-column label/count query and fills the given map.
func (r *IncidentRepository) countInto(ctx context.Context, dest map[string]int, query string) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		var count int
		if scanErr := rows.Scan(&label, &count); scanErr != nil {
			return scanErr
		}
		dest[label] = count
	}

	return rows.Err()
}
