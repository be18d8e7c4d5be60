package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	clientmodel "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/approval"
)

func TestMetricsServiceApprovalCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordApprovalAction("approve", "ok")
	m.RecordApprovalAction("approve", "ok")
	m.RecordApprovalAction("reject", "busy")

	assert.Equal(t, 2.0, metricValue(t, m.approvalActions.WithLabelValues("approve", "ok")))
	assert.Equal(t, 1.0, metricValue(t, m.approvalActions.WithLabelValues("reject", "busy")))

	m.ObserveCourseCounts(approval.Counts{Pending: 2, Approved: 1, Rejected: 0, Total: 3})
	assert.Equal(t, 2.0, metricValue(t, m.courseStatus.WithLabelValues("PENDING")))
	assert.Equal(t, 0.0, metricValue(t, m.courseStatus.WithLabelValues("REJECTED")))
}

func TestMetricsServiceCacheRatio(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	assert.InDelta(t, 0.75, metricValue(t, m.cacheHitRatio), 0.0001)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/courses", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordApprovalAction("approve", "ok")
		m.ObserveCourseCounts(approval.Counts{})
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func metricValue(t *testing.T, metric prometheus.Metric) float64 {
	t.Helper()
	var pb clientmodel.Metric
	require.NoError(t, metric.Write(&pb))
	switch {
	case pb.Counter != nil:
		return pb.Counter.GetValue()
	case pb.Gauge != nil:
		return pb.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}
