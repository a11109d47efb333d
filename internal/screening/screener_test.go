package screening_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arassiq/SafeSenior/internal/callcontrol"
	"github.com/arassiq/SafeSenior/internal/callstate"
	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/detector"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/knowledge"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/notify"
	"github.com/arassiq/SafeSenior/internal/screening"
)

type callRecorderStub struct {
	upserts []*domain.Call
}

func (r *callRecorderStub) Upsert(_ context.Context, call *domain.Call) error {
	r.upserts = append(r.upserts, call)
	return nil
}

type incidentRecorderStub struct {
	incidents []*domain.Incident
}

func (r *incidentRecorderStub) Create(_ context.Context, incident *domain.Incident) error {
	r.incidents = append(r.incidents, incident)
	return nil
}

type screenerFixture struct {
	screener  *screening.Screener
	client    *callcontrol.SimulatedClient
	store     *callstate.MemoryStore
	index     *knowledge.MemoryIndex
	calls     *callRecorderStub
	incidents *incidentRecorderStub
}

func newScreenerFixture(t *testing.T) *screenerFixture {
	t.Helper()

	cfg := &config.ScreeningConfig{
		FamilyNumber: "+1-555-FAMILY",
		ElderNumber:  "+1-555-SENIOR",
	}
	cfg.SetDefaults()

	nop := logger.NewNop()
	client := callcontrol.NewSimulatedClient(nop)
	store := callstate.NewMemoryStore(time.Hour)
	index := knowledge.NewMemoryIndex()
	calls := &callRecorderStub{}
	incidents := &incidentRecorderStub{}

	screener := screening.NewScreener(cfg, screening.ScreenerDeps{
		Engine:      detector.NewTrieRuleEngine(detector.DefaultRules(), nop, nil),
		Knowledge:   knowledge.NewService(index, cfg.ScamThreshold, nop, nil),
		CallControl: client,
		Notifier:    notify.NewMulti(nop, nil, notify.NewSMSNotifier(client, cfg.FamilyNumber, nop)),
		Store:       store,
		Calls:       calls,
		Incidents:   incidents,
		Logger:      nop,
	})

	return &screenerFixture{
		screener:  screener,
		client:    client,
		store:     store,
		index:     index,
		calls:     calls,
		incidents: incidents,
	}
}

func TestScreener_BlocksIRSArrestCall(t *testing.T) {
	f := newScreenerFixture(t)

	call := f.screener.Screen(context.Background(), screening.Request{
		CallID:       "call-1",
		CallerNumber: "+15550100",
		Transcript:   screening.TestTranscripts[0],
	})

	require.NotNil(t, call.Result)
	assert.Equal(t, domain.CallStatusBlocked, call.Status)
	assert.True(t, call.Result.IsScam)
	assert.InDelta(t, 1.0, call.Result.RiskScore, 1e-9)
	assert.Equal(t, domain.ActionBlock, call.Result.Action)
	assert.Equal(t, domain.ScamTypeIRS, call.Result.ScamType)
	assert.Equal(t, screening.BlockReason, call.Result.Reason)
	assert.Equal(t, domain.RecommendationBlockAndAlert, call.Result.Recommendation)
	require.NotNil(t, call.ScreenedAt)

	actions := f.client.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, callcontrol.ActionKindEnd, actions[0].Kind)
	assert.Equal(t, "call-1", actions[0].CallID)
	assert.Equal(t, screening.BlockReason, actions[0].Reason)
	assert.Equal(t, callcontrol.ActionKindSMS, actions[1].Kind)
	assert.Equal(t, "+1-555-FAMILY", actions[1].To)
	assert.Contains(t, actions[1].Body, "We have intercepted a call")

	require.Len(t, f.incidents.incidents, 1)
	assert.Equal(t, domain.IncidentCallBlocked, f.incidents.incidents[0].Type)
	assert.Equal(t, domain.ActionBlock, f.incidents.incidents[0].Action)

	require.Len(t, f.calls.upserts, 1)

	stored, err := f.store.Get(context.Background(), "call-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusBlocked, stored.Status)
}

func TestScreener_WarmTransfersGrandparentCall(t *testing.T) {
	f := newScreenerFixture(t)

	call := f.screener.Screen(context.Background(), screening.Request{
		CallID:       "call-2",
		CallerNumber: "+15550101",
		Transcript:   screening.TestTranscripts[1],
	})

	assert.Equal(t, domain.CallStatusTransferredFamily, call.Status)
	assert.Equal(t, domain.ActionTransferFamily, call.Result.Action)
	assert.Equal(t, domain.ScamTypeGrandparent, call.Result.ScamType)
	assert.True(t, call.Result.IsScam)

	actions := f.client.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, callcontrol.ActionKindTransfer, actions[0].Kind)
	assert.Equal(t, "+1-555-FAMILY", actions[0].Destination)
	assert.True(t, actions[0].Warm)

	require.Len(t, f.incidents.incidents, 1)
	assert.Equal(t, domain.IncidentScamDetected, f.incidents.incidents[0].Type)
}

func TestScreener_ApprovesDoctorCall(t *testing.T) {
	f := newScreenerFixture(t)

	call := f.screener.Screen(context.Background(), screening.Request{
		CallID:       "call-3",
		CallerNumber: "+15550102",
		Transcript:   screening.TestTranscripts[2],
	})

	assert.Equal(t, domain.CallStatusTransferredSenior, call.Status)
	assert.Equal(t, domain.ActionTransferNormal, call.Result.Action)
	assert.False(t, call.Result.IsScam)
	assert.Zero(t, call.Result.RiskScore)
	assert.Equal(t, "No scam indicators detected", call.Result.Reason)

	actions := f.client.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, callcontrol.ActionKindTransfer, actions[0].Kind)
	assert.Equal(t, "+1-555-SENIOR", actions[0].Destination)
	assert.False(t, actions[0].Warm)
	assert.Contains(t, actions[1].Body, "We have approved a call")

	assert.Empty(t, f.incidents.incidents)
}

func TestScreener_ReportedSafeVerdictApprovesDespiteRisk(t *testing.T) {
	f := newScreenerFixture(t)

	reported := false
	call := f.screener.Screen(context.Background(), screening.Request{
		CallID:       "call-4",
		CallerNumber: "+15550103",
		Transcript:   screening.TestTranscripts[0],
		ReportedScam: &reported,
	})

	// The computed verdict still records the risk, but the reported safe
	// verdict approves the call.
	assert.True(t, call.Result.IsScam)
	assert.Equal(t, domain.ActionTransferNormal, call.Result.Action)
	assert.Equal(t, domain.CallStatusTransferredSenior, call.Status)

	actions := f.client.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, callcontrol.ActionKindTransfer, actions[0].Kind)
	assert.Equal(t, "+1-555-SENIOR", actions[0].Destination)
	assert.Contains(t, actions[1].Body, "We have approved a call")
}

func TestScreener_ReportedReasonKeptVerbatim(t *testing.T) {
	f := newScreenerFixture(t)

	reported := true
	call := f.screener.Screen(context.Background(), screening.Request{
		CallID:         "call-5",
		CallerNumber:   "+15550104",
		Transcript:     screening.TestTranscripts[0],
		ReportedScam:   &reported,
		ReportedReason: "AI voice cloning suspected",
	})

	assert.Equal(t, "AI voice cloning suspected", call.Result.Reason)
	assert.Equal(t, domain.ActionBlock, call.Result.Action)

	actions := f.client.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, "AI voice cloning suspected", actions[0].Reason)
	assert.Contains(t, actions[1].Body, "Reason for interception: AI voice cloning suspected")
}

func TestScreener_KnowledgeCorroborationRaisesRisk(t *testing.T) {
	f := newScreenerFixture(t)

	require.NoError(t, f.index.Add(context.Background(), []domain.Article{
		{
			Title:    "Gift card payment demand",
			Source:   "ftc",
			ScamType: domain.ScamTypeGeneralFraud,
			Urgency:  domain.UrgencyCritical,
		},
	}))

	call := f.screener.Screen(context.Background(), screening.Request{
		CallID:       "call-6",
		CallerNumber: "+15550105",
		Transcript:   "Caller demanded payment with a gift card right away",
	})

	result := call.Result
	assert.InDelta(t, 0.35, result.EngineScore, 1e-9)
	assert.InDelta(t, 1.0, result.KnowledgeScore, 1e-9)
	assert.InDelta(t, 0.65, result.RiskScore, 1e-9)
	assert.False(t, result.IsScam)
	assert.Equal(t, domain.ActionTransferMonitor, result.Action)
	assert.Equal(t, domain.CallStatusTransferredSenior, call.Status)
	assert.Contains(t, result.Indicators, "gift card payment demand")
}

func TestScreener_ScreenTestUsesCannedTranscript(t *testing.T) {
	f := newScreenerFixture(t)

	call := f.screener.ScreenTest(context.Background(), "call-7", "+15550106")

	assert.Contains(t, screening.TestTranscripts[:], call.Transcript)
	require.NotNil(t, call.Result)
	assert.Equal(t, call.Transcript, f.calls.upserts[0].Transcript)
}

func TestScreener_Stats(t *testing.T) {
	f := newScreenerFixture(t)
	ctx := context.Background()

	f.screener.Screen(ctx, screening.Request{
		CallID: "call-8", CallerNumber: "+15550107", Transcript: screening.TestTranscripts[0],
	})
	f.screener.Screen(ctx, screening.Request{
		CallID: "call-9", CallerNumber: "+15550108", Transcript: screening.TestTranscripts[2],
	})

	stats := f.screener.Stats()
	assert.Equal(t, int64(2), stats.Screened)
	assert.Equal(t, int64(1), stats.ScamsDetected)
	assert.InDelta(t, 0.5, stats.AverageRisk, 1e-9)
	assert.Equal(t, int64(1), stats.ByAction[string(domain.ActionBlock)])
	assert.Equal(t, int64(1), stats.ByAction[string(domain.ActionTransferNormal)])
}
