package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/whenparse/internal/observability"
)

// MetricsOverviewResponse represents the overview response of extraction metrics
type MetricsOverviewResponse struct {
	TotalRequests int64   `json:"total_requests"`
	SuccessRate   float64 `json:"success_rate"`
	ErrorCount    int64   `json:"error_count"`
	MatchCount    int64   `json:"match_count"`
	P95LatencyMs  int64   `json:"p95_latency_ms"`
	// Operations is keyed by operation name ("extract", "extract_batch").
	Operations map[string]*observability.OperationSnapshot `json:"operations"`
}

// GetMetricsOverview returns the extraction metrics overview
// GET /api/v1/metrics
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	snap := s.Metrics.Snapshot()
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalRequests: snap.RequestTotal,
		SuccessRate:   snap.SuccessRate(),
		ErrorCount:    snap.RequestFailed,
		MatchCount:    snap.MatchTotal,
		P95LatencyMs:  snap.P95Duration,
		Operations:    snap.Operations,
	})
}
