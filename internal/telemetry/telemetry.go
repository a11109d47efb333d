// Package telemetry provides OpenTelemetry instrumentation for the
// SafeSenior services. It exports Prometheus metrics and provides
// tracing capabilities.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Metrics holds all SafeSenior Prometheus metrics.
type Metrics struct {
	// Screening metrics
	CallsScreened     *prometheus.CounterVec
	ScamsDetected     *prometheus.CounterVec
	ScreeningDuration prometheus.Histogram
	RiskScore         prometheus.Histogram

	// Rule engine metrics
	RuleMatchDuration prometheus.Histogram
	RulesEvaluated    prometheus.Counter
	RulesMatched      prometheus.Counter
	RuleReloads       prometheus.Counter

	// Knowledge index metrics
	KnowledgeQueries       prometheus.Counter
	KnowledgeQueryDuration prometheus.Histogram
	KnowledgeQueryFailures prometheus.Counter

	// Call action metrics
	ActionsExecuted *prometheus.CounterVec
	ActionFailures  *prometheus.CounterVec

	// Notification metrics
	NotificationsSent    *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec

	// Collector metrics
	ArticlesCollected    *prometheus.CounterVec
	ArticlesDeduplicated prometheus.Counter
	ArticlesIndexed      prometheus.Counter
	CollectionDuration   prometheus.Histogram
	CollectionFailures   *prometheus.CounterVec
	SnapshotWebhooks     *prometheus.CounterVec
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics for the
// named service ("screener" or "collector").
func NewProvider(serviceName string) *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initScreeningMetrics(m)
	initRuleEngineMetrics(m)
	initKnowledgeMetrics(m)
	initActionMetrics(m)
	initNotificationMetrics(m)
	initCollectorMetrics(m)
	return m
}

func initScreeningMetrics(m *Metrics) {
	m.CallsScreened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safesenior_calls_screened_total",
		Help: "Total calls screened, by routing decision",
	}, []string{"action"})

	m.ScamsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safesenior_scams_detected_total",
		Help: "Total calls flagged as scams, by scam type",
	}, []string{"scam_type"})

	m.ScreeningDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "safesenior_screening_duration_seconds",
		Help:    "End-to-end time to screen a single call",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	})

	m.RiskScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "safesenior_risk_score",
		Help:    "Distribution of computed risk scores",
		Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})
}

func initRuleEngineMetrics(m *Metrics) {
	m.RuleMatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "safesenior_rule_match_duration_seconds",
		Help:    "Time spent in keyword matching (Aho-Corasick)",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	m.RulesEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesenior_rules_evaluated_total",
		Help: "Total rule evaluations",
	})

	m.RulesMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesenior_rules_matched_total",
		Help: "Total rules that matched",
	})

	m.RuleReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesenior_rule_reloads_total",
		Help: "Total rule set reloads",
	})
}

func initKnowledgeMetrics(m *Metrics) {
	m.KnowledgeQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesenior_knowledge_queries_total",
		Help: "Total knowledge index queries",
	})

	m.KnowledgeQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "safesenior_knowledge_query_duration_seconds",
		Help:    "Time spent querying the knowledge index",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0},
	})

	m.KnowledgeQueryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesenior_knowledge_query_failures_total",
		Help: "Total knowledge index queries that failed",
	})
}

func initActionMetrics(m *Metrics) {
	m.ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safesenior_call_actions_total",
		Help: "Total call-control actions executed, by action and mode",
	}, []string{"action", "mode"})

	m.ActionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safesenior_call_action_failures_total",
		Help: "Total call-control actions that failed",
	}, []string{"action"})
}

func initNotificationMetrics(m *Metrics) {
	m.NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safesenior_notifications_sent_total",
		Help: "Total family and ops notifications sent, by channel",
	}, []string{"channel"})

	m.NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safesenior_notification_failures_total",
		Help: "Total notifications that failed to send",
	}, []string{"channel"})
}

func initCollectorMetrics(m *Metrics) {
	m.ArticlesCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safesenior_articles_collected_total",
		Help: "Total scam news articles collected, by source",
	}, []string{"source"})

	m.ArticlesDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesenior_articles_deduplicated_total",
		Help: "Total articles skipped as duplicates",
	})

	m.ArticlesIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesenior_articles_indexed_total",
		Help: "Total articles written to the knowledge index",
	})

	m.CollectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "safesenior_collection_duration_seconds",
		Help:    "Time to run a full collection cycle",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	})

	m.CollectionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safesenior_collection_failures_total",
		Help: "Total collection runs that failed, by source",
	}, []string{"source"})

	m.SnapshotWebhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safesenior_snapshot_webhooks_total",
		Help: "Total inbound snapshot webhooks, by outcome",
	}, []string{"outcome"})
}

// RecordScreening records metrics for a single screened call.
func (p *Provider) RecordScreening(ctx context.Context, action string, riskScore float64, duration time.Duration) {
	p.Metrics.CallsScreened.WithLabelValues(action).Inc()
	p.Metrics.RiskScore.Observe(riskScore)
	p.Metrics.ScreeningDuration.Observe(duration.Seconds())
}

// RecordScamDetected increments the scam counter for the given type.
func (p *Provider) RecordScamDetected(ctx context.Context, scamType string) {
	label := scamType
	if label == "" {
		label = "general_fraud"
	}
	p.Metrics.ScamsDetected.WithLabelValues(label).Inc()
}

// RecordRuleMatch records rule engine metrics.
func (p *Provider) RecordRuleMatch(ctx context.Context, duration time.Duration, rulesEvaluated, rulesMatched int) {
	p.Metrics.RuleMatchDuration.Observe(duration.Seconds())
	p.Metrics.RulesEvaluated.Add(float64(rulesEvaluated))
	p.Metrics.RulesMatched.Add(float64(rulesMatched))
}

// RecordRuleReload increments the rule reload counter.
func (p *Provider) RecordRuleReload(ctx context.Context) {
	p.Metrics.RuleReloads.Inc()
}

// RecordKnowledgeQuery records a knowledge index query.
func (p *Provider) RecordKnowledgeQuery(ctx context.Context, duration time.Duration, err error) {
	p.Metrics.KnowledgeQueries.Inc()
	p.Metrics.KnowledgeQueryDuration.Observe(duration.Seconds())
	if err != nil {
		p.Metrics.KnowledgeQueryFailures.Inc()
	}
}

// RecordAction records an executed call-control action.
// Mode is "live" or "simulated".
func (p *Provider) RecordAction(ctx context.Context, action, mode string, err error) {
	p.Metrics.ActionsExecuted.WithLabelValues(action, mode).Inc()
	if err != nil {
		p.Metrics.ActionFailures.WithLabelValues(action).Inc()
	}
}

// RecordNotification records a sent notification on the given channel.
func (p *Provider) RecordNotification(ctx context.Context, channel string, err error) {
	if err != nil {
		p.Metrics.NotificationFailures.WithLabelValues(channel).Inc()
		return
	}
	p.Metrics.NotificationsSent.WithLabelValues(channel).Inc()
}

// RecordCollection records a completed collection cycle for one source.
func (p *Provider) RecordCollection(ctx context.Context, source string, collected int, duration time.Duration, err error) {
	if err != nil {
		p.Metrics.CollectionFailures.WithLabelValues(source).Inc()
		return
	}
	p.Metrics.ArticlesCollected.WithLabelValues(source).Add(float64(collected))
	p.Metrics.CollectionDuration.Observe(duration.Seconds())
}

// RecordDeduplicated increments the duplicate article counter.
func (p *Provider) RecordDeduplicated(ctx context.Context) {
	p.Metrics.ArticlesDeduplicated.Inc()
}

// RecordIndexed adds to the indexed article counter.
func (p *Provider) RecordIndexed(ctx context.Context, count int) {
	p.Metrics.ArticlesIndexed.Add(float64(count))
}

// RecordSnapshotWebhook records an inbound snapshot webhook outcome
// (accepted, rejected, or invalid_signature).
func (p *Provider) RecordSnapshotWebhook(ctx context.Context, outcome string) {
	p.Metrics.SnapshotWebhooks.WithLabelValues(outcome).Inc()
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}
