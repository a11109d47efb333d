package telemetry_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/arassiq/SafeSenior/internal/telemetry"
)

// promauto registers into the global Prometheus registry, so a second
// NewProvider in the same process panics on duplicate metrics. Every
// test shares this one.
var provider *telemetry.Provider

func TestMain(m *testing.M) {
	provider = telemetry.NewProvider("screener")
	os.Exit(m.Run())
}

func TestNewProvider(t *testing.T) {
	if provider.Tracer == nil {
		t.Error("expected non-nil tracer")
	}
	if provider.Metrics == nil {
		t.Error("expected non-nil metrics")
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	provider.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Errorf("metrics endpoint returned %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics endpoint returned empty body")
	}
}

// The Record methods only touch counters and histograms. The tests
// drive each label combination once; a mislabeled instrument panics.

func TestRecordScreening(t *testing.T) {
	ctx := context.Background()

	provider.RecordScreening(ctx, "transfer_normal", 0.1, 10*time.Millisecond)
	provider.RecordScreening(ctx, "block", 0.95, 25*time.Millisecond)
	provider.RecordScamDetected(ctx, "irs_impersonation")
	provider.RecordScamDetected(ctx, "")
}

func TestRecordRuleMatch(t *testing.T) {
	ctx := context.Background()

	provider.RecordRuleMatch(ctx, 5*time.Millisecond, 25, 3)
	provider.RecordRuleReload(ctx)
}

func TestRecordKnowledgeQuery(t *testing.T) {
	ctx := context.Background()

	provider.RecordKnowledgeQuery(ctx, 12*time.Millisecond, nil)
	provider.RecordKnowledgeQuery(ctx, 3*time.Second, errors.New("search timeout"))
}

func TestRecordAction(t *testing.T) {
	ctx := context.Background()

	provider.RecordAction(ctx, "transfer_family", "simulated", nil)
	provider.RecordAction(ctx, "block", "live", errors.New("gateway timeout"))
	provider.RecordNotification(ctx, "sms", nil)
	provider.RecordNotification(ctx, "telegram", errors.New("chat not found"))
}

func TestRecordCollection(t *testing.T) {
	ctx := context.Background()

	provider.RecordCollection(ctx, "newsapi", 12, 2*time.Second, nil)
	provider.RecordCollection(ctx, "rss", 0, time.Second, errors.New("feed unreachable"))
	provider.RecordDeduplicated(ctx)
	provider.RecordIndexed(ctx, 12)
	provider.RecordSnapshotWebhook(ctx, "accepted")
}

func TestStartSpan(t *testing.T) {
	ctx, span := provider.StartSpan(context.Background(), "screen-call")
	if ctx == nil {
		t.Error("expected non-nil context")
	}
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	span.End()
}
