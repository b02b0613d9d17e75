package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestShutdowns_JoinsErrors(t *testing.T) {
	errA := errors.New("meter flush failed")
	calls := 0
	s := shutdowns{
		func(context.Context) error { calls++; return errA },
		func(context.Context) error { calls++; return nil },
	}

	err := s.run(context.Background())
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, errA)

	assert.NoError(t, shutdowns{}.run(context.Background()))
}

func TestInit_ExportsMetricsToRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	shutdown, err := Init(context.Background(), Config{ServiceName: "moneyflow-test", Registry: reg})
	require.NoError(t, err)
	defer shutdown(context.Background())

	counter, err := otel.Meter("moneyflow/test").Int64Counter("imports_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	metricsServer("0", reg).Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "imports_total")
}

func TestMetricsServer_OnlyServesMetrics(t *testing.T) {
	srv := metricsServer("9464", prometheus.NewRegistry())
	assert.Equal(t, ":9464", srv.Addr)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
