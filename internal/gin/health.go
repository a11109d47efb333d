package gin

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the reported state of the service or one of its backends.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of a single backend check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthChecker probes one backend and reports its state.
type HealthChecker func() CheckResult

// HealthOptions configures the health endpoints.
type HealthOptions struct {
	ServiceName    string
	ServiceVersion string
	// StartTime anchors uptime reporting; zero means process start.
	StartTime time.Time
	// Checks maps backend names to their probes.
	Checks map[string]HealthChecker
}

// processStart anchors uptime when no explicit start time is given.
var processStart = time.Now()

// RegisterHealthRoutes adds the health endpoints without backend checks:
//
//	GET  /health        - status, service name, version, uptime
//	HEAD /health        - empty 200 for load balancer probes
//	GET  /health/memory - runtime memory statistics
func RegisterHealthRoutes(router *gin.Engine, serviceName, version string) {
	RegisterHealthRoutesWithChecks(router, HealthOptions{
		ServiceName:    serviceName,
		ServiceVersion: version,
	})
}

// RegisterHealthRoutesWithChecks adds the health endpoints with backend
// checks. Each check runs on every GET /health; an unhealthy check turns
// the response into a 503.
func RegisterHealthRoutesWithChecks(router *gin.Engine, opts HealthOptions) {
	if opts.StartTime.IsZero() {
		opts.StartTime = processStart
	}

	router.GET("/health", healthHandler(opts))
	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health/memory", memoryHealthHandler())
}

func healthHandler(opts HealthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:  HealthStatusHealthy,
			Service: opts.ServiceName,
			Version: opts.ServiceVersion,
			Uptime:  formatUptime(time.Since(opts.StartTime)),
		}

		if len(opts.Checks) > 0 {
			response.Checks = make(map[string]CheckResult, len(opts.Checks))
			for name, check := range opts.Checks {
				result := check()
				response.Checks[name] = result
				response.Status = worseOf(response.Status, result.Status)
			}
		}

		statusCode := http.StatusOK
		if response.Status == HealthStatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}

// worseOf keeps the overall status at the most severe level seen so far.
func worseOf(current, observed HealthStatus) HealthStatus {
	if current == HealthStatusUnhealthy || observed == HealthStatusUnhealthy {
		return HealthStatusUnhealthy
	}
	if observed == HealthStatusDegraded {
		return HealthStatusDegraded
	}
	return current
}

// memoryHealth holds runtime memory metrics for the memory endpoint.
type memoryHealth struct {
	Timestamp     time.Time `json:"timestamp"`
	HeapAllocMB   float64   `json:"heap_alloc_mb"`
	HeapInuseMB   float64   `json:"heap_inuse_mb"`
	HeapIdleMB    float64   `json:"heap_idle_mb"`
	StackInuseMB  float64   `json:"stack_inuse_mb"`
	NumGC         uint32    `json:"num_gc"`
	NumGoroutine  int       `json:"num_goroutine"`
	GOMaxProcs    int       `json:"gomaxprocs"`
	LastGCPauseMs float64   `json:"last_gc_pause_ms,omitempty"`
}

func memoryHealthHandler() gin.HandlerFunc {
	const bytesPerMB = 1024 * 1024

	return func(c *gin.Context) {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		health := memoryHealth{
			Timestamp:    time.Now().UTC(),
			HeapAllocMB:  float64(stats.Alloc) / bytesPerMB,
			HeapInuseMB:  float64(stats.HeapInuse) / bytesPerMB,
			HeapIdleMB:   float64(stats.HeapIdle) / bytesPerMB,
			StackInuseMB: float64(stats.StackInuse) / bytesPerMB,
			NumGC:        stats.NumGC,
			NumGoroutine: runtime.NumGoroutine(),
			GOMaxProcs:   runtime.GOMAXPROCS(0),
		}
		if stats.NumGC > 0 {
			health.LastGCPauseMs = float64(stats.PauseNs[(stats.NumGC+255)%256]) / 1e6
		}

		c.JSON(http.StatusOK, health)
	}
}

// formatUptime renders a duration at coarse precision, e.g. "3d 4h 12m".
// Seconds only appear during the first minute after boot.
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds())%60)
	}
}

// pingChecker wraps a backend connectivity probe as a HealthChecker.
// failStatus decides whether a failed probe takes the whole service
// down or merely degrades it.
func pingChecker(backend string, failStatus HealthStatus, ping func() error) HealthChecker {
	return func() CheckResult {
		start := time.Now()
		err := ping()

		result := CheckResult{
			Status:  HealthStatusHealthy,
			Message: backend + " connection OK",
			Latency: time.Since(start).String(),
		}
		if err != nil {
			result.Status = failStatus
			result.Message = backend + " connection failed"
		}
		return result
	}
}

// DatabaseHealthChecker probes PostgreSQL. A failed ping reports the
// service unhealthy: call records and incidents cannot be persisted
// without it, so the instance should rotate out of the pool.
func DatabaseHealthChecker(ping func() error) HealthChecker {
	return pingChecker("Database", HealthStatusUnhealthy, ping)
}

// RedisHealthChecker probes Redis. Call state falls back to the
// in-memory store when Redis is away, so a failed ping only degrades
// the service.
func RedisHealthChecker(ping func() error) HealthChecker {
	return pingChecker("Redis", HealthStatusDegraded, ping)
}

// ElasticsearchHealthChecker probes Elasticsearch. Screening still
// works on rule scores alone without the knowledge index, so a failed
// ping only degrades the service.
func ElasticsearchHealthChecker(ping func() error) HealthChecker {
	return pingChecker("Elasticsearch", HealthStatusDegraded, ping)
}
