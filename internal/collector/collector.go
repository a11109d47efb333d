package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/knowledge"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/telemetry"
)

// Collection errors.
var (
	// ErrTriggerDisabled is returned when a snapshot operation is asked
	// of a collector with no trigger provider configured.
	ErrTriggerDisabled = errors.New("trigger provider is not configured")
	// ErrSnapshotNotReady is returned when a polled snapshot is still
	// collecting.
	ErrSnapshotNotReady = errors.New("snapshot not ready")
)

const (
	snapshotPollInterval = 30 * time.Second
	snapshotPollTimeout  = 10 * time.Minute
)

// ArticleStore persists collected articles. The database repository
// implements it; a nil store skips persistence in demo mode.
type ArticleStore interface {
	UpsertBatch(ctx context.Context, articles []domain.Article) (created, updated int, err error)
}

// CollectorDeps wires the collection pipeline's collaborators.
type CollectorDeps struct {
	Sources []Source
	// Trigger is nil when the dataset provider is not configured.
	Trigger *TriggerClient
	// Enricher is nil when page enrichment is disabled.
	Enricher *PageEnricher
	Deduper  Deduper
	// Articles is nil when no database is configured.
	Articles  ArticleStore
	Index     knowledge.Index
	Telemetry *telemetry.Provider
	Logger    logger.Logger
}

// Collector runs the collection pipeline: fetch from every source,
// deduplicate, classify, persist, and index.
type Collector struct {
	cfg       *config.CollectConfig
	sources   []Source
	trigger   *TriggerClient
	enricher  *PageEnricher
	deduper   Deduper
	articles  ArticleStore
	index     knowledge.Index
	telemetry *telemetry.Provider
	logger    logger.Logger

	mu             sync.Mutex
	runs           int64
	lastRun        time.Time
	lastIndexed    int
	totalCollected int64
	totalDuplicate int64
	totalIndexed   int64
	snapshots      int64
	lastSnapshotID string
	lastSnapshotAt time.Time
}

// NewCollector creates the collection pipeline.
func NewCollector(cfg *config.CollectConfig, deps CollectorDeps) *Collector {
	return &Collector{
		cfg:       cfg,
		sources:   deps.Sources,
		trigger:   deps.Trigger,
		enricher:  deps.Enricher,
		deduper:   deps.Deduper,
		articles:  deps.Articles,
		index:     deps.Index,
		telemetry: deps.Telemetry,
		logger:    deps.Logger,
	}
}

// RunResult summarizes one collection run.
type RunResult struct {
	Collected  int            `json:"collected"`
	Duplicates int            `json:"duplicates"`
	Indexed    int            `json:"indexed"`
	BySource   map[string]int `json:"by_source"`
	SnapshotID string         `json:"snapshot_id,omitempty"`
}

// Run fetches from every source concurrently and ingests the merged
// batch. A failing source is logged and skipped. When a trigger provider
// is configured, a dataset run is also fired; its results arrive later
// through the snapshot webhook, or by polling when no webhook endpoint
// is configured.
func (c *Collector) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	if c.telemetry != nil {
		var span trace.Span
		ctx, span = c.telemetry.StartSpan(ctx, "collector.run")
		defer span.End()
	}

	c.logger.Info("Collection run started", logger.Int("sources", len(c.sources)))

	var (
		mu       sync.Mutex
		fetched  []domain.Article
		bySource = make(map[string]int)
	)

	var wg sync.WaitGroup
	for _, source := range c.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()

			sourceStart := time.Now()
			articles, err := src.Fetch(ctx)
			if c.telemetry != nil {
				c.telemetry.RecordCollection(ctx, src.Name(), len(articles), time.Since(sourceStart), err)
			}
			if err != nil {
				c.logger.Error("Source fetch failed",
					logger.String("source", src.Name()),
					logger.Error(err))
				return
			}
			if len(articles) > c.cfg.MaxArticles {
				articles = articles[:c.cfg.MaxArticles]
			}

			mu.Lock()
			fetched = append(fetched, articles...)
			bySource[src.Name()] = len(articles)
			mu.Unlock()
		}(source)
	}
	wg.Wait()

	result := &RunResult{BySource: bySource}

	if c.trigger != nil {
		triggered, err := c.trigger.Trigger(ctx)
		if err != nil {
			c.logger.Error("Dataset trigger failed", logger.Error(err))
		} else {
			result.SnapshotID = triggered.SnapshotID
			c.mu.Lock()
			c.lastSnapshotID = triggered.SnapshotID
			c.mu.Unlock()
			if c.cfg.Trigger.NotifyURL == "" {
				go c.pollSnapshot(triggered.SnapshotID)
			}
		}
	}

	indexed, duplicates, err := c.ingest(ctx, fetched)
	if err != nil {
		return nil, err
	}
	result.Collected = len(fetched)
	result.Duplicates = duplicates
	result.Indexed = indexed

	c.mu.Lock()
	c.runs++
	c.lastRun = time.Now().UTC()
	c.lastIndexed = indexed
	c.totalCollected += int64(len(fetched))
	c.totalDuplicate += int64(duplicates)
	c.totalIndexed += int64(indexed)
	c.mu.Unlock()

	c.logger.Info("Collection run finished",
		logger.Int("collected", result.Collected),
		logger.Int("duplicates", duplicates),
		logger.Int("indexed", indexed),
		logger.Duration("duration", time.Since(start)))

	return result, nil
}

// IngestSnapshot feeds webhook-delivered dataset results through the
// pipeline. Returns the number of articles indexed.
func (c *Collector) IngestSnapshot(ctx context.Context, payload *SnapshotPayload) (int, error) {
	articles := SnapshotArticles(payload, time.Now().UTC())

	indexed, duplicates, err := c.ingest(ctx, articles)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.snapshots++
	c.lastSnapshotID = payload.SnapshotID
	c.lastSnapshotAt = time.Now().UTC()
	c.mu.Unlock()

	c.logger.Info("Snapshot ingested",
		logger.String("snapshot_id", payload.SnapshotID),
		logger.Int("articles", len(articles)),
		logger.Int("indexed", indexed),
		logger.Int("duplicates", duplicates))

	return indexed, nil
}

// FetchSnapshot polls the trigger provider for a snapshot and ingests it
// once ready. Fallback for deployments whose webhook endpoint the
// provider cannot reach.
func (c *Collector) FetchSnapshot(ctx context.Context, snapshotID string) (int, error) {
	if c.trigger == nil {
		return 0, ErrTriggerDisabled
	}

	progress, err := c.trigger.Progress(ctx, snapshotID)
	if err != nil {
		return 0, err
	}
	if progress.Status != SnapshotStatusReady {
		return 0, fmt.Errorf("%w: snapshot %s is %s", ErrSnapshotNotReady, snapshotID, progress.Status)
	}

	payload, err := c.trigger.Snapshot(ctx, snapshotID)
	if err != nil {
		return 0, err
	}
	return c.IngestSnapshot(ctx, payload)
}

func (c *Collector) pollSnapshot(snapshotID string) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotPollTimeout)
	defer cancel()

	ticker := time.NewTicker(snapshotPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Warn("Gave up waiting for snapshot", logger.String("snapshot_id", snapshotID))
			return
		case <-ticker.C:
			indexed, err := c.FetchSnapshot(ctx, snapshotID)
			if errors.Is(err, ErrSnapshotNotReady) {
				continue
			}
			if err != nil {
				c.logger.Error("Snapshot fetch failed",
					logger.String("snapshot_id", snapshotID),
					logger.Error(err))
				return
			}
			c.logger.Info("Snapshot fetched by polling",
				logger.String("snapshot_id", snapshotID),
				logger.Int("indexed", indexed))
			return
		}
	}
}

// ingest deduplicates, enriches, classifies, persists, and indexes one
// batch of articles.
func (c *Collector) ingest(ctx context.Context, articles []domain.Article) (indexed, duplicates int, err error) {
	kept := make([]domain.Article, 0, len(articles))
	now := time.Now().UTC()

	for i := range articles {
		article := articles[i]
		if article.Title == "" {
			continue
		}

		fresh, rememberErr := c.deduper.Remember(ctx, article.DedupeKey())
		if rememberErr != nil {
			// Collect anyway: the repository upsert absorbs true
			// duplicates by ID.
			c.logger.Error("Dedupe check failed",
				logger.String("title", article.Title),
				logger.Error(rememberErr))
			fresh = true
		}
		if !fresh {
			duplicates++
			if c.telemetry != nil {
				c.telemetry.RecordDeduplicated(ctx)
			}
			continue
		}

		if c.enricher != nil {
			if enrichErr := c.enricher.Enrich(ctx, &article); enrichErr != nil {
				c.logger.Warn("Page enrichment failed",
					logger.String("url", article.URL),
					logger.Error(enrichErr))
			}
		}

		Classify(&article)
		article.CollectedAt = now
		if article.PublishedAt.IsZero() {
			article.PublishedAt = now
		}
		if article.ID == "" {
			article.ID = article.GenerateID()
		}

		kept = append(kept, article)
	}

	if len(kept) == 0 {
		return 0, duplicates, nil
	}

	sort.Slice(kept, func(i, j int) bool {
		return kept[i].PublishedAt.After(kept[j].PublishedAt)
	})

	if c.articles != nil {
		created, updated, upsertErr := c.articles.UpsertBatch(ctx, kept)
		if upsertErr != nil {
			c.logger.Error("Article persistence failed", logger.Error(upsertErr))
		} else {
			c.logger.Debug("Articles persisted",
				logger.Int("created", created),
				logger.Int("updated", updated))
		}
	}

	if indexErr := c.index.Add(ctx, kept); indexErr != nil {
		return 0, duplicates, fmt.Errorf("index articles: %w", indexErr)
	}
	if c.telemetry != nil {
		c.telemetry.RecordIndexed(ctx, len(kept))
	}

	return len(kept), duplicates, nil
}

// Stats is the collector's aggregate state for the status endpoints.
type Stats struct {
	Runs              int64     `json:"runs"`
	LastRun           time.Time `json:"last_run"`
	LastIndexed       int       `json:"last_indexed"`
	TotalCollected    int64     `json:"total_collected"`
	TotalDuplicates   int64     `json:"total_duplicates"`
	TotalIndexed      int64     `json:"total_indexed"`
	SnapshotsReceived int64     `json:"snapshots_received"`
	LastSnapshotID    string    `json:"last_snapshot_id,omitempty"`
	LastSnapshotAt    time.Time `json:"last_snapshot_at"`
}

// Stats returns a snapshot of the collector's counters.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Runs:              c.runs,
		LastRun:           c.lastRun,
		LastIndexed:       c.lastIndexed,
		TotalCollected:    c.totalCollected,
		TotalDuplicates:   c.totalDuplicate,
		TotalIndexed:      c.totalIndexed,
		SnapshotsReceived: c.snapshots,
		LastSnapshotID:    c.lastSnapshotID,
		LastSnapshotAt:    c.lastSnapshotAt,
	}
}
