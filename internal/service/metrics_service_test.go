package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshotTotals(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/students/:id/course-events", http.StatusOK, 20*time.Millisecond)
	m.RecordVerdict(true, nil)
	m.RecordVerdict(false, []string{"TIME_CONFLICT", "ANNUAL_CAP_REACHED"})
	m.RecordVerdict(false, []string{"TIME_CONFLICT"})
	m.RecordAssignments("RANDOM", "accepted", 3)
	m.RecordAssignments("MANUAL", "rejected", 0)
	m.ObserveExportJob("FINISHED", time.Second)

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.Equal(t, int64(1), snapshot.Verdicts["eligible"])
	assert.Equal(t, int64(2), snapshot.Verdicts["TIME_CONFLICT"])
	assert.Equal(t, int64(3), snapshot.Assignments["RANDOM:accepted"])
	assert.NotContains(t, snapshot.Assignments, "MANUAL:rejected")
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordVerdict(true, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eligibility_verdicts_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordVerdict(true, nil)
	m.RecordAssignments("RANDOM", "accepted", 1)
	m.ObserveExportJob("FAILED", time.Second)
	assert.Empty(t, m.Snapshot().Verdicts)
}
