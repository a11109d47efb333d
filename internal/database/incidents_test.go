package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/arassiq/SafeSenior/internal/database"
	"github.com/arassiq/SafeSenior/internal/domain"
)

// incidentColumns lists the columns returned by incidents SELECT queries.
var incidentColumns = []string{
	"id", "call_id", "caller_number", "incident_type", "risk_score",
	"scam_type", "action", "details", "transcript", "created_at",
}

func newIncidentRepo(t *testing.T) (*database.IncidentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	repo := database.NewIncidentRepository(mockDB)

	return repo, mock, func() { mockDB.Close() }
}

func TestIncidentRepository_Create(t *testing.T) {
	repo, mock, cleanup := newIncidentRepo(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	incident := &domain.Incident{
		CallID:       "call-1",
		CallerNumber: "+15550100",
		Type:         domain.IncidentCallBlocked,
		RiskScore:    0.92,
		ScamType:     domain.ScamTypeIRS,
		Action:       domain.ActionBlock,
		Details:      "IRS impersonation with arrest threats",
		Transcript:   "This is the IRS calling about your unpaid taxes.",
	}

	mock.ExpectQuery("INSERT INTO incidents").
		WithArgs(
			"call-1",
			"+15550100",
			string(domain.IncidentCallBlocked),
			0.92,
			string(domain.ScamTypeIRS),
			string(domain.ActionBlock),
			incident.Details,
			incident.Transcript,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	if err := repo.Create(ctx, incident); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if incident.ID != 7 {
		t.Errorf("expected generated ID 7, got %d", incident.ID)
	}
	if !incident.CreatedAt.Equal(now) {
		t.Errorf("expected CreatedAt %v, got %v", now, incident.CreatedAt)
	}

	expectationsMet(t, mock)
}

func TestIncidentRepository_Create_Error(t *testing.T) {
	repo, mock, cleanup := newIncidentRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("INSERT INTO incidents").
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(ctx, &domain.Incident{CallID: "call-1", Type: domain.IncidentScamDetected})
	if err == nil {
		t.Fatal("Create() expected error, got nil")
	}

	expectationsMet(t, mock)
}

func TestIncidentRepository_List_All(t *testing.T) {
	repo, mock, cleanup := newIncidentRepo(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM incidents\\s+ORDER BY created_at DESC").
		WithArgs(20, 0).
		WillReturnRows(
			sqlmock.NewRows(incidentColumns).
				AddRow(int64(2), "call-2", "+15550101", "scam_detected", 0.75,
					"grandparent_scam", "transfer_family", "bail money request", "", now).
				AddRow(int64(1), "call-1", "+15550100", "call_blocked", 0.92,
					"irs_impersonation", "block", "arrest threats", "", now.Add(-time.Hour)),
		)

	incidents, err := repo.List(ctx, "", 20, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(incidents) != 2 {
		t.Fatalf("expected 2 incidents, got %d", len(incidents))
	}
	if incidents[0].ID != 2 {
		t.Errorf("expected first incident ID 2, got %d", incidents[0].ID)
	}
	if incidents[1].Type != domain.IncidentCallBlocked {
		t.Errorf("expected second incident type call_blocked, got %s", incidents[1].Type)
	}

	expectationsMet(t, mock)
}

func TestIncidentRepository_List_FilteredByType(t *testing.T) {
	repo, mock, cleanup := newIncidentRepo(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM incidents\\s+WHERE incident_type").
		WithArgs("call_blocked", 10, 0).
		WillReturnRows(
			sqlmock.NewRows(incidentColumns).
				AddRow(int64(1), "call-1", "+15550100", "call_blocked", 0.92,
					"irs_impersonation", "block", "arrest threats", "", now),
		)

	incidents, err := repo.List(ctx, "call_blocked", 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(incidents) != 1 {
		t.Fatalf("expected 1 incident, got %d", len(incidents))
	}
	if incidents[0].Action != domain.ActionBlock {
		t.Errorf("expected action block, got %s", incidents[0].Action)
	}

	expectationsMet(t, mock)
}

func TestIncidentRepository_Stats(t *testing.T) {
	repo, mock, cleanup := newIncidentRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS total").
		WillReturnRows(sqlmock.NewRows([]string{"total", "avg_risk_score"}).AddRow(5, 0.81))

	mock.ExpectQuery("SELECT incident_type, COUNT\\(\\*\\)").
		WillReturnRows(
			sqlmock.NewRows([]string{"incident_type", "count"}).
				AddRow("call_blocked", 3).
				AddRow("scam_detected", 2),
		)

	mock.ExpectQuery("SELECT scam_type, COUNT\\(\\*\\)").
		WillReturnRows(
			sqlmock.NewRows([]string{"scam_type", "count"}).
				AddRow("irs_impersonation", 3).
				AddRow("grandparent_scam", 2),
		)

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 5 {
		t.Errorf("expected total 5, got %d", stats.Total)
	}
	if stats.AvgRiskScore != 0.81 {
		t.Errorf("expected avg risk 0.81, got %v", stats.AvgRiskScore)
	}
	if stats.ByType["call_blocked"] != 3 {
		t.Errorf("expected 3 blocked incidents, got %d", stats.ByType["call_blocked"])
	}
	if stats.ByScamType["irs_impersonation"] != 3 {
		t.Errorf("expected 3 IRS incidents, got %d", stats.ByScamType["irs_impersonation"])
	}

	expectationsMet(t, mock)
}

func TestIncidentRepository_Stats_Error(t *testing.T) {
	repo, mock, cleanup := newIncidentRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS total").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.Stats(ctx)
	if err == nil {
		t.Fatal("Stats() expected error, got nil")
	}

	expectationsMet(t, mock)
}
