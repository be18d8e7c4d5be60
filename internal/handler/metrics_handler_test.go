package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/lms-api/internal/service"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(nil, fakePinger{})
	c, rec := newTestContext(http.MethodGet, "/ready", "", nil)
	handler.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	handler = NewMetricsHandler(nil, fakePinger{err: errors.New("connection refused")})
	c, rec = newTestContext(http.MethodGet, "/ready", "", nil)
	handler.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordApprovalAction("approve", "ok")
	handler := NewMetricsHandler(metrics, nil)

	c, rec := newTestContext(http.MethodGet, "/metrics", "", nil)
	handler.Prometheus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "course_approval_actions_total")
}

func TestMetricsHandlerWithoutRegistry(t *testing.T) {
	handler := NewMetricsHandler(nil, nil)
	c, rec := newTestContext(http.MethodGet, "/metrics", "", nil)
	handler.Prometheus(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
