package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arassiq/SafeSenior/internal/detector"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/screening"
)

const defaultListLimit = 50

// ScreenCallRequest is the platform webhook body. Field names are the
// platform's, mixed casing included; changing them breaks live callers.
type ScreenCallRequest struct {
	Scam           bool   `json:"Scam"`
	ScamReason     string `json:"ScamReason"`
	CallTranscript string `json:"callTranscript"`
	CallID         string `json:"callId"`
	CallerNumber   string `json:"callerNumber"`
}

// TestCallRequest synthesizes a call for the test endpoint.
type TestCallRequest struct {
	CallerNumber string `json:"callerNumber"`
}

// screenCall handles POST /api/v1/calls/screen
func (r *ScreenerRouter) screenCall(c *gin.Context) {
	var req ScreenCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	callID := req.CallID
	if callID == "" {
		callID = uuid.New().String()
	}

	reported := req.Scam
	call := r.screener.Screen(c.Request.Context(), screening.Request{
		CallID:         callID,
		CallerNumber:   req.CallerNumber,
		Transcript:     req.CallTranscript,
		ReportedScam:   &reported,
		ReportedReason: req.ScamReason,
	})

	c.JSON(http.StatusOK, call.Result)
}

// testCall handles POST /api/v1/calls/test
func (r *ScreenerRouter) testCall(c *gin.Context) {
	var req TestCallRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}
	if req.CallerNumber == "" {
		req.CallerNumber = "+15550000000"
	}

	call := r.screener.ScreenTest(c.Request.Context(), "test-"+uuid.New().String(), req.CallerNumber)

	c.JSON(http.StatusOK, gin.H{
		"call":       call,
		"transcript": call.Transcript,
		"result":     call.Result,
	})
}

// getCall handles GET /api/v1/calls/:id
func (r *ScreenerRouter) getCall(c *gin.Context) {
	callID := c.Param("id")

	call, err := r.store.Get(c.Request.Context(), callID)
	if errors.Is(err, domain.ErrCallNotFound) && r.calls != nil {
		call, err = r.calls.GetByID(c.Request.Context(), callID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrCallNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Call not found"})
			return
		}
		r.logger.Error("Failed to load call",
			logger.Error(err),
			logger.String("call_id", callID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve call"})
		return
	}

	c.JSON(http.StatusOK, call)
}

// listCalls handles GET /api/v1/calls
func (r *ScreenerRouter) listCalls(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}

	calls, err := r.store.List(c.Request.Context(), limit)
	if err != nil {
		r.logger.Error("Failed to list calls", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve calls"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"calls": calls,
		"count": len(calls),
	})
}

// getRules handles GET /api/v1/rules
func (r *ScreenerRouter) getRules(c *gin.Context) {
	rules := r.engine.GetRules()

	c.JSON(http.StatusOK, gin.H{
		"rules":    rules,
		"count":    len(rules),
		"keywords": r.engine.KeywordCount(),
	})
}

// reloadRules handles POST /api/v1/rules/reload
func (r *ScreenerRouter) reloadRules(c *gin.Context) {
	rules, err := detector.LoadRulesFile(r.cfg.Screening.RulesPath)
	if err != nil {
		r.logger.Error("Failed to reload rules",
			logger.Error(err),
			logger.String("path", r.cfg.Screening.RulesPath))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload rules"})
		return
	}

	r.engine.UpdateRules(rules)
	if r.telemetry != nil {
		r.telemetry.RecordRuleReload(c.Request.Context())
	}
	r.logger.Info("Rules reloaded",
		logger.String("path", r.cfg.Screening.RulesPath),
		logger.Int("rules", len(rules)))

	c.JSON(http.StatusOK, gin.H{
		"status": "reloaded",
		"rules":  len(rules),
	})
}

// getStats handles GET /api/v1/stats
func (r *ScreenerRouter) getStats(c *gin.Context) {
	ctx := c.Request.Context()
	response := gin.H{"screening": r.screener.Stats()}

	if r.calls != nil {
		byStatus, err := r.calls.CountByStatus(ctx)
		if err != nil {
			r.logger.Error("Failed to count calls by status", logger.Error(err))
		} else {
			response["calls_by_status"] = byStatus
		}
	}
	if r.incidents != nil {
		incidentStats, err := r.incidents.Stats(ctx)
		if err != nil {
			r.logger.Error("Failed to load incident stats", logger.Error(err))
		} else {
			response["incidents"] = incidentStats
		}
	}
	if r.knowledge != nil {
		knowledgeStats, err := r.knowledge.Stats(ctx)
		if err != nil {
			r.logger.Error("Failed to load knowledge stats", logger.Error(err))
		} else {
			response["knowledge"] = knowledgeStats
		}
	}

	c.JSON(http.StatusOK, response)
}

// listIncidents handles GET /api/v1/incidents
func (r *ScreenerRouter) listIncidents(c *gin.Context) {
	if r.incidents == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Incident log requires a database"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	incidents, err := r.incidents.List(c.Request.Context(), c.Query("type"), limit, offset)
	if err != nil {
		r.logger.Error("Failed to list incidents", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve incidents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"incidents": incidents,
		"count":     len(incidents),
	})
}

// queryKnowledge handles GET /api/v1/knowledge/query
func (r *ScreenerRouter) queryKnowledge(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}

	c.JSON(http.StatusOK, r.knowledge.Query(c.Request.Context(), q))
}

// knowledgeInsights handles GET /api/v1/knowledge/insights
func (r *ScreenerRouter) knowledgeInsights(c *gin.Context) {
	insights, err := r.knowledge.Insights(c.Request.Context())
	if err != nil {
		r.logger.Error("Failed to build knowledge insights", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build insights"})
		return
	}

	c.JSON(http.StatusOK, insights)
}
