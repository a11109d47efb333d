package collector_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arassiq/SafeSenior/internal/collector"
	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/knowledge"
	"github.com/arassiq/SafeSenior/internal/logger"
)

type stubSource struct {
	name     string
	articles []domain.Article
	err      error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context) ([]domain.Article, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Article(nil), s.articles...), nil
}

type articleStoreStub struct {
	mu      sync.Mutex
	batches [][]domain.Article
}

func (s *articleStoreStub) UpsertBatch(_ context.Context, articles []domain.Article) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]domain.Article(nil), articles...))
	return len(articles), 0, nil
}

type collectorFixture struct {
	collector *collector.Collector
	index     knowledge.Index
	store     *articleStoreStub
	cfg       *config.CollectConfig
}

func newCollectorFixture(sources ...collector.Source) *collectorFixture {
	cfg := &config.CollectConfig{}
	cfg.SetDefaults()

	index := knowledge.NewMemoryIndex()
	store := &articleStoreStub{}

	return &collectorFixture{
		collector: collector.NewCollector(cfg, collector.CollectorDeps{
			Sources:  sources,
			Deduper:  collector.NewMemoryDeduper(cfg.DedupeTTL),
			Articles: store,
			Index:    index,
			Logger:   logger.NewNop(),
		}),
		index: index,
		store: store,
		cfg:   cfg,
	}
}

func TestCollector_Run_IndexesSimulatedArticles(t *testing.T) {
	fix := newCollectorFixture(collector.NewSimulatedSource())
	ctx := context.Background()

	result, err := fix.collector.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Collected)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 5, result.Indexed)
	assert.Equal(t, 5, result.BySource["simulated"])

	count, err := fix.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	require.Len(t, fix.store.batches, 1)
	batch := fix.store.batches[0]
	require.Len(t, batch, 5)

	for i := 1; i < len(batch); i++ {
		assert.False(t, batch[i].PublishedAt.After(batch[i-1].PublishedAt), "batch is newest first")
	}

	var tech domain.Article
	for _, a := range batch {
		if a.Title == "Tech Support Scams Target Seniors with Fake Virus Warnings" {
			tech = a
		}
	}
	require.NotEmpty(t, tech.Title, "tech support fixture survives ingestion")
	assert.Equal(t, domain.ScamTypeTechSupport, tech.ScamType, "untyped articles are classified on ingest")
	assert.True(t, tech.ElderlySpecific)
	assert.NotEmpty(t, tech.ID)
	assert.False(t, tech.CollectedAt.IsZero())
}

func TestCollector_Run_SkipsDuplicatesAcrossRuns(t *testing.T) {
	source := &stubSource{name: "stub", articles: []domain.Article{{
		Title:       "Gift card scam wave hits three states",
		URL:         "https://example.com/gift-card-wave",
		PublishedAt: time.Now().UTC(),
	}}}
	fix := newCollectorFixture(source)
	ctx := context.Background()

	first, err := fix.collector.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Indexed)

	second, err := fix.collector.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Collected)
	assert.Equal(t, 1, second.Duplicates)
	assert.Equal(t, 0, second.Indexed)

	count, err := fix.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stats := fix.collector.Stats()
	assert.Equal(t, int64(2), stats.Runs)
	assert.Equal(t, int64(2), stats.TotalCollected)
	assert.Equal(t, int64(1), stats.TotalDuplicates)
	assert.Equal(t, int64(1), stats.TotalIndexed)
	assert.Equal(t, 0, stats.LastIndexed)
	assert.False(t, stats.LastRun.IsZero())
}

func TestCollector_Run_SourceFailureDoesNotAbort(t *testing.T) {
	failing := &stubSource{name: "broken", err: errors.New("connection refused")}
	healthy := &stubSource{name: "stub", articles: []domain.Article{{
		Title:       "Medicare card replacement calls reported",
		URL:         "https://example.com/medicare-calls",
		PublishedAt: time.Now().UTC(),
	}}}
	fix := newCollectorFixture(failing, healthy)

	result, err := fix.collector.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Collected)
	assert.Equal(t, 1, result.BySource["stub"])
	assert.NotContains(t, result.BySource, "broken")
}

func TestCollector_Run_CapsArticlesPerSource(t *testing.T) {
	var articles []domain.Article
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		articles = append(articles, domain.Article{
			Title:       fmt.Sprintf("Scam alert number %d", i),
			URL:         fmt.Sprintf("https://example.com/alert-%d", i),
			PublishedAt: base.Add(-time.Duration(i) * time.Hour),
		})
	}
	fix := newCollectorFixture(&stubSource{name: "stub", articles: articles})
	fix.cfg.MaxArticles = 2

	result, err := fix.collector.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Collected)
	assert.Equal(t, 2, result.BySource["stub"])
	assert.Equal(t, 2, result.Indexed)
}

func TestCollector_Run_FiresDatasetTrigger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datasets/v3/trigger", r.URL.Path)
		fmt.Fprint(w, `{"snapshot_id": "s_run42"}`)
	}))
	defer srv.Close()

	fix := newCollectorFixture()
	fix.cfg.Trigger = config.TriggerConfig{
		BaseURL:   srv.URL,
		APIKey:    "trigger-key",
		DatasetID: "ds_elder_scams",
		NotifyURL: "https://collector.example.com/webhook/snapshot",
	}
	trigger := collector.NewTriggerClient(&fix.cfg.Trigger, logger.NewNop())

	coll := collector.NewCollector(fix.cfg, collector.CollectorDeps{
		Trigger: trigger,
		Deduper: collector.NewMemoryDeduper(fix.cfg.DedupeTTL),
		Index:   fix.index,
		Logger:  logger.NewNop(),
	})

	result, err := coll.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s_run42", result.SnapshotID)
	assert.Equal(t, "s_run42", coll.Stats().LastSnapshotID)
}

func TestCollector_IngestSnapshot(t *testing.T) {
	fix := newCollectorFixture()
	ctx := context.Background()

	payload := &collector.SnapshotPayload{
		SnapshotID: "s_hook7",
		Data: []collector.SnapshotItem{{
			Input:   collector.SnapshotInput{Prompt: "Latest elderly scam alerts and fraud warnings 2026-08-23 IRS impersonation"},
			Content: "IRS impersonators demand immediate gift card payments from elderly taxpayers nationwide.",
		}},
	}

	indexed, err := fix.collector.IngestSnapshot(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, indexed)

	count, err := fix.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stats := fix.collector.Stats()
	assert.Equal(t, int64(1), stats.SnapshotsReceived)
	assert.Equal(t, "s_hook7", stats.LastSnapshotID)
	assert.False(t, stats.LastSnapshotAt.IsZero())
}

func TestCollector_FetchSnapshot(t *testing.T) {
	var (
		mu     sync.Mutex
		status = "running"
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/datasets/v3/progress/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, `{"snapshot_id": "s_poll1", "status": %q}`, status)
	})
	mux.HandleFunc("/datasets/v3/snapshot/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{
				"input": {"url": "https://www.perplexity.ai", "prompt": "Grandparent scams family emergency fraud"},
				"content": "Police report a wave of grandparent scams asking for bail money wired overnight."
			}
		]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fix := newCollectorFixture()
	fix.cfg.Trigger = config.TriggerConfig{BaseURL: srv.URL, APIKey: "trigger-key", DatasetID: "ds_elder_scams"}
	trigger := collector.NewTriggerClient(&fix.cfg.Trigger, logger.NewNop())

	coll := collector.NewCollector(fix.cfg, collector.CollectorDeps{
		Trigger: trigger,
		Deduper: collector.NewMemoryDeduper(fix.cfg.DedupeTTL),
		Index:   fix.index,
		Logger:  logger.NewNop(),
	})
	ctx := context.Background()

	_, err := coll.FetchSnapshot(ctx, "s_poll1")
	require.ErrorIs(t, err, collector.ErrSnapshotNotReady)

	mu.Lock()
	status = collector.SnapshotStatusReady
	mu.Unlock()

	indexed, err := coll.FetchSnapshot(ctx, "s_poll1")
	require.NoError(t, err)
	assert.Equal(t, 1, indexed)
}

func TestCollector_FetchSnapshot_TriggerDisabled(t *testing.T) {
	fix := newCollectorFixture()

	_, err := fix.collector.FetchSnapshot(context.Background(), "s_none")
	assert.ErrorIs(t, err, collector.ErrTriggerDisabled)
}

func TestSimulatedSource_Fetch(t *testing.T) {
	source := collector.NewSimulatedSource()
	assert.Equal(t, "simulated", source.Name())

	articles, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 5)

	for _, a := range articles {
		assert.NotEmpty(t, a.Title)
		assert.NotEmpty(t, a.URL)
		assert.NotEmpty(t, a.Source)
		assert.False(t, a.PublishedAt.IsZero())
	}
	assert.Equal(t, "New IRS Impersonation Scam Targets Elderly with AI Voice Cloning", articles[0].Title)
	assert.Equal(t, domain.ScamTypeIRS, articles[0].ScamType)
}
