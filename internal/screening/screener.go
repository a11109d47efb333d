// Package screening coordinates the call screening pipeline: rule
// analysis, knowledge corroboration, the transfer decision, the
// call-control action, family notification and persistence.
package screening

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arassiq/SafeSenior/internal/callcontrol"
	"github.com/arassiq/SafeSenior/internal/callstate"
	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/detector"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/knowledge"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/notify"
	"github.com/arassiq/SafeSenior/internal/telemetry"
)

// CallRecorder persists screened calls. *database.CallRepository
// implements it; nil disables persistence.
type CallRecorder interface {
	Upsert(ctx context.Context, call *domain.Call) error
}

// IncidentRecorder persists screening interventions.
// *database.IncidentRepository implements it; nil disables the audit log.
type IncidentRecorder interface {
	Create(ctx context.Context, incident *domain.Incident) error
}

// Request carries one call into the pipeline. CallID must be set; the
// API layer generates one when the platform omits it.
type Request struct {
	CallID       string
	CallerNumber string
	Transcript   string
	// ReportedScam is the upstream agent's verdict when the request came
	// in through the platform webhook; nil when screening runs without
	// one (test calls). A reported safe verdict approves the call
	// regardless of the computed risk.
	ReportedScam *bool
	// ReportedReason is the upstream agent's explanation, kept verbatim
	// in the result when present.
	ReportedReason string
}

// ScreenerDeps contains dependencies for creating a Screener.
type ScreenerDeps struct {
	Engine      *detector.TrieRuleEngine
	Knowledge   *knowledge.Service
	CallControl callcontrol.Client
	Notifier    notify.Notifier
	Store       callstate.Store
	Calls       CallRecorder
	Incidents   IncidentRecorder
	Telemetry   *telemetry.Provider
	Logger      logger.Logger
}

// Screener runs calls through the full pipeline. The call-control action
// is the step that matters: persistence and notification are best-effort
// and their failures never fail a screening.
type Screener struct {
	cfg       *config.ScreeningConfig
	engine    *detector.TrieRuleEngine
	knowledge *knowledge.Service
	client    callcontrol.Client
	notifier  notify.Notifier
	store     callstate.Store
	calls     CallRecorder
	incidents IncidentRecorder
	telemetry *telemetry.Provider
	logger    logger.Logger
	mode      string

	mu       sync.Mutex
	screened int64
	scams    int64
	riskSum  float64
	byAction map[domain.Action]int64
}

// NewScreener wires the pipeline from its dependencies.
func NewScreener(cfg *config.ScreeningConfig, deps ScreenerDeps) *Screener {
	mode := "live"
	if _, ok := deps.CallControl.(*callcontrol.SimulatedClient); ok {
		mode = "simulated"
	}

	return &Screener{
		cfg:       cfg,
		engine:    deps.Engine,
		knowledge: deps.Knowledge,
		client:    deps.CallControl,
		notifier:  deps.Notifier,
		store:     deps.Store,
		calls:     deps.Calls,
		incidents: deps.Incidents,
		telemetry: deps.Telemetry,
		logger:    deps.Logger,
		mode:      mode,
		byAction:  make(map[domain.Action]int64),
	}
}

// Screen runs one call through the pipeline and returns the screened
// call. The returned call always carries a result; downstream failures
// are logged and counted, not returned.
func (s *Screener) Screen(ctx context.Context, req Request) *domain.Call {
	start := time.Now()
	if s.telemetry != nil {
		var span trace.Span
		ctx, span = s.telemetry.StartSpan(ctx, "screening.screen",
			attribute.String("call.id", req.CallID))
		defer span.End()
	}

	call := &domain.Call{
		ID:           req.CallID,
		CallerNumber: req.CallerNumber,
		Transcript:   req.Transcript,
		Status:       domain.CallStatusActive,
		StartedAt:    start.UTC(),
	}

	analysis := s.engine.Analyze(req.Transcript)
	assessment := s.knowledge.Assess(ctx, req.Transcript)
	risk := CombineRisk(analysis.Score, assessment.Score, s.cfg.KnowledgeWeight)

	result := &domain.ScreeningResult{
		CallID:         req.CallID,
		IsScam:         risk > s.cfg.ScamThreshold,
		RiskScore:      risk,
		EngineScore:    analysis.Score,
		KnowledgeScore: assessment.Score,
		ScamType:       analysis.ScamType,
		Indicators:     analysis.Indicators,
		Matches:        analysis.Matches,
		Recommendation: domain.RecommendationForRisk(risk),
		ReportedScam:   req.ReportedScam,
		ScreenedAt:     time.Now().UTC(),
	}

	// A reported safe verdict approves the call outright; everything
	// else goes through the decision tree.
	if req.ReportedScam != nil && !*req.ReportedScam {
		result.Action = domain.ActionTransferNormal
	} else {
		result.Action = DecideAction(req.Transcript, risk)
	}

	result.Reason = req.ReportedReason
	if result.Reason == "" {
		result.Reason = reasonForResult(result)
	}

	if req.ReportedScam != nil && *req.ReportedScam != result.IsScam {
		s.logger.Warn("Screening disagrees with reported verdict",
			logger.String("call_id", req.CallID),
			logger.Bool("reported_scam", *req.ReportedScam),
			logger.Bool("computed_scam", result.IsScam),
			logger.Float64("risk_score", risk))
	}

	screenedAt := result.ScreenedAt
	call.Status = domain.StatusForAction(result.Action)
	call.ScreenedAt = &screenedAt
	call.Result = result

	s.executeAction(ctx, call)
	s.notifyChannels(ctx, call)
	s.persist(ctx, call)
	s.recordLocal(result)

	if s.telemetry != nil {
		s.telemetry.RecordScreening(ctx, string(result.Action), risk, time.Since(start))
		if result.IsScam {
			s.telemetry.RecordScamDetected(ctx, string(result.ScamType))
		}
	}

	s.logger.Info("Call screened",
		logger.String("call_id", call.ID),
		logger.String("caller_number", call.CallerNumber),
		logger.Float64("risk_score", risk),
		logger.Bool("is_scam", result.IsScam),
		logger.String("action", string(result.Action)))

	return call
}

// ScreenTest synthesizes a test call for the caller number using a
// canned transcript and runs it through the same pipeline.
func (s *Screener) ScreenTest(ctx context.Context, callID, callerNumber string) *domain.Call {
	return s.Screen(ctx, Request{
		CallID:       callID,
		CallerNumber: callerNumber,
		Transcript:   TestTranscript(callerNumber),
	})
}

// executeAction drives the call-control side effect for the decided
// action.
func (s *Screener) executeAction(ctx context.Context, call *domain.Call) {
	result := call.Result

	var err error
	switch result.Action {
	case domain.ActionBlock:
		err = s.client.EndCall(ctx, call.ID, result.Reason)
	case domain.ActionTransferFamily:
		err = s.client.TransferCall(ctx, call.ID, s.cfg.FamilyNumber, true)
	default:
		err = s.client.TransferCall(ctx, call.ID, s.cfg.ElderNumber, false)
	}

	if s.telemetry != nil {
		s.telemetry.RecordAction(ctx, string(result.Action), s.mode, err)
	}
	if err != nil {
		s.logger.Error("Call-control action failed",
			logger.String("call_id", call.ID),
			logger.String("action", string(result.Action)),
			logger.Error(err))
	}
}

func (s *Screener) notifyChannels(ctx context.Context, call *domain.Call) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CallScreened(ctx, call); err != nil {
		s.logger.Warn("Notification incomplete",
			logger.String("call_id", call.ID),
			logger.Error(err))
	}
}

func (s *Screener) persist(ctx context.Context, call *domain.Call) {
	if err := s.store.Put(ctx, call); err != nil {
		s.logger.Error("Failed to store call state",
			logger.String("call_id", call.ID),
			logger.Error(err))
	}

	if s.calls != nil {
		if err := s.calls.Upsert(ctx, call); err != nil {
			s.logger.Error("Failed to persist call",
				logger.String("call_id", call.ID),
				logger.Error(err))
		}
	}

	incident := incidentFor(call)
	if incident == nil || s.incidents == nil {
		return
	}
	if err := s.incidents.Create(ctx, incident); err != nil {
		s.logger.Error("Failed to record incident",
			logger.String("call_id", call.ID),
			logger.String("incident_type", string(incident.Type)),
			logger.Error(err))
	}
}

// incidentFor builds the audit record for an intervention, nil when the
// call warranted none.
func incidentFor(call *domain.Call) *domain.Incident {
	result := call.Result

	var kind domain.IncidentType
	switch {
	case result.Action == domain.ActionBlock:
		kind = domain.IncidentCallBlocked
	case result.IsScam:
		kind = domain.IncidentScamDetected
	default:
		return nil
	}

	return &domain.Incident{
		CallID:       call.ID,
		CallerNumber: call.CallerNumber,
		Type:         kind,
		RiskScore:    result.RiskScore,
		ScamType:     result.ScamType,
		Action:       result.Action,
		Details:      result.Reason,
		Transcript:   domain.TranscriptPreview(call.Transcript),
	}
}

// Stats is a snapshot of in-process screening counters. It backs the
// stats endpoint when no database is configured.
type Stats struct {
	Screened      int64            `json:"screened"`
	ScamsDetected int64            `json:"scams_detected"`
	AverageRisk   float64          `json:"average_risk_score"`
	ByAction      map[string]int64 `json:"by_action"`
}

func (s *Screener) recordLocal(result *domain.ScreeningResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screened++
	if result.IsScam {
		s.scams++
	}
	s.riskSum += result.RiskScore
	s.byAction[result.Action]++
}

// Stats returns a snapshot of the in-process counters.
func (s *Screener) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Screened:      s.screened,
		ScamsDetected: s.scams,
		ByAction:      make(map[string]int64, len(s.byAction)),
	}
	if s.screened > 0 {
		stats.AverageRisk = s.riskSum / float64(s.screened)
	}
	for action, count := range s.byAction {
		stats.ByAction[string(action)] = count
	}

	return stats
}
