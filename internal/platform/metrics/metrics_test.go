package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/tasks-api/internal/generation"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveGeneration(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveGeneration(generation.TierPrimary, "", 2)
	m.ObserveGeneration(generation.TierFallback, generation.ReasonTimeout, 3)
	m.ObserveGeneration(generation.TierFallback, generation.ReasonNotConfigured, 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("primary")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.generations.WithLabelValues("fallback")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.generatedTasks.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.primaryFailures.WithLabelValues("timeout")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.primaryFailures))
}

func TestObserveHTTPRequest(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/api/tasks", 200, 5*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/tasks", 200, 5*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodPost, "/api/tasks", 400, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/tasks", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/tasks", "400")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.httpDuration))
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveGeneration(generation.TierFallback, generation.ReasonMalformed, 1)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `tasks_generation_primary_failures_total{reason="malformed"} 1`))
	assert.Contains(t, text, "go_goroutines")
}
