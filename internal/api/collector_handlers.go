package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arassiq/SafeSenior/internal/collector"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/webhooksig"
)

// snapshotWebhook handles POST /webhook/snapshot.
// The dataset provider delivers finished snapshot results here.
func (r *CollectorRouter) snapshotWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Failed to read request body"})
		return
	}

	if r.signer != nil && !r.signer.Verify(body, c.GetHeader(webhooksig.HeaderName)) {
		r.recordWebhook(ctx, "invalid_signature")
		r.logger.Warn("Rejected snapshot webhook with bad signature")
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Invalid webhook signature"})
		return
	}

	var payload collector.SnapshotPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		r.recordWebhook(ctx, "rejected")
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid snapshot payload"})
		return
	}

	indexed, err := r.collector.IngestSnapshot(ctx, &payload)
	if err != nil {
		r.recordWebhook(ctx, "rejected")
		r.logger.Error("Failed to process snapshot",
			logger.Error(err),
			logger.String("snapshot_id", payload.SnapshotID))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to process snapshot"})
		return
	}

	r.recordWebhook(ctx, "accepted")
	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"message":     fmt.Sprintf("Processed %d articles", indexed),
		"snapshot_id": payload.SnapshotID,
	})
}

// testWebhook handles POST /webhook/test.
// Runs a canned snapshot through the full pipeline so operators can
// verify the delivery path without waiting for a real dataset run.
func (r *CollectorRouter) testWebhook(c *gin.Context) {
	now := time.Now().UTC()
	payload := collector.TestSnapshot(now)
	articles := collector.SnapshotArticles(payload, now)

	if _, err := r.collector.IngestSnapshot(c.Request.Context(), payload); err != nil {
		r.logger.Error("Test snapshot ingest failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to process test snapshot"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "test_success",
		"processed_articles": len(articles),
		"articles":           articles,
	})
}

// webhookStatus handles GET /webhook/status
func (r *CollectorRouter) webhookStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "active",
		"service":         r.cfg.Service.Name,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"trigger_enabled": r.cfg.Collect.Trigger.Enabled(),
		"stats":           r.collector.Stats(),
	})
}

// collectNow handles POST /api/v1/collect
func (r *CollectorRouter) collectNow(c *gin.Context) {
	result, err := r.collector.Run(c.Request.Context())
	if err != nil {
		r.logger.Error("Manual collection run failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Collection run failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// recentArticles handles GET /api/v1/articles/recent
func (r *CollectorRouter) recentArticles(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}

	ctx := c.Request.Context()
	articles, err := r.loadRecent(ctx, limit)
	if err != nil {
		r.logger.Error("Failed to load recent articles", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve articles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"count":    len(articles),
	})
}

// loadRecent prefers the database and falls back to the in-process
// knowledge index when the service runs without one.
func (r *CollectorRouter) loadRecent(ctx context.Context, limit int) ([]domain.Article, error) {
	if r.articles != nil {
		return r.articles.Recent(ctx, limit)
	}
	return r.index.Recent(ctx, limit)
}

func (r *CollectorRouter) recordWebhook(ctx context.Context, outcome string) {
	if r.telemetry != nil {
		r.telemetry.RecordSnapshotWebhook(ctx, outcome)
	}
}
