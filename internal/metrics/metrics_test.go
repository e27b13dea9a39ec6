package metrics

import (
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCounters(t *testing.T) {
	m := New()
	m.RenderStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderInProgress))

	m.ObserveRender(10*time.Millisecond, nil)
	m.ObserveRender(5*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.renderInProgress))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.renderDuration))
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager
	m.RenderStarted()
	m.ObserveRender(time.Second, nil)
	m.ObserveNormalize(nil)
	m.ObserveExport(nil)
	m.DebounceEmitted()
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile("unused"))
}

func TestWriteTextfile(t *testing.T) {
	m := New(WithNamespace("ringtest"))
	m.ObserveExport(nil)
	m.DebounceEmitted()

	path := filepath.Join(t.TempDir(), "growthring.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, `ringtest_exports_total{result="ok"} 1`), out)
	assert.True(t, strings.Contains(out, "ringtest_debounce_emissions_total 1"), out)
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveNormalize(errors.New("not an image"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `growthring_normalize_total{result="error"} 1`)

	var nilManager *Manager
	rec = httptest.NewRecorder()
	nilManager.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
