package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendorconnect/jobs/internal/handler/health"
	promhandler "github.com/vendorconnect/jobs/internal/handler/prometheus"
	"github.com/vendorconnect/jobs/pkg/logger"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func TestRouterServesOpsEndpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	promH, err := promhandler.New(reg, "vcjobs")
	require.NoError(t, err)

	engine := NewRouter(health.NewHandler(map[string]health.Pinger{"database": okPinger{}}), promH, logger.Nop())

	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vcjobs_http_requests_total{method="GET",path="/health/live",status="200"} 1`)
}
