package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgen/internal/generative/common"
	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{
		Namespace:   "test",
		ConstLabels: map[string]string{"run_id": "r1"},
	}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, c *Collector) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestNewMetricsCollector_WithRuntimeMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{
		Namespace:            "test",
		EnableGoMetrics:      true,
		EnableProcessMetrics: true,
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrapeMetrics(t, c), "go_goroutines")
}

func TestCollector_RunInfo(t *testing.T) {
	c := newTestCollector(t)
	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_run_info{run_id="r1"} 1`)
	assert.Equal(t, "test", c.Namespace())
}

func TestCollector_GenerativeMetricsRegistered(t *testing.T) {
	c := newTestCollector(t)
	m, err := common.NewPrometheusGenerativeMetrics(c.Namespace(), c.Registerer())
	require.NoError(t, err)
	m.RecordLookupMiss(context.Background(), 19)

	n, err := testutil.GatherAndCount(c.Gatherer(), "test_lookup_miss_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := newTestCollector(t)
	extra := prometheus.NewCounter(prometheus.CounterOpts{Namespace: "test", Name: "probe_total", Help: "probe"})
	extra.Add(3)
	require.NoError(t, c.Registerer().Register(extra))

	path := filepath.Join(t.TempDir(), "textfile", "molgen.prom")
	require.NoError(t, c.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "test_probe_total 3")
	assert.Contains(t, string(raw), "test_run_info")
}

//Personal.AI order the ending
