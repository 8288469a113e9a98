package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	require.NotNil(t, archiveFetchTotal)
	require.NotNil(t, archiveShowsTotal)
	require.NotNil(t, httpRequestsTotal)
}

func TestObserveShow(t *testing.T) {
	before := testutil.ToFloat64(showsCounter("not_found"))
	ObserveShow("not_found")
	ObserveShow("not_found")
	assert.InDelta(t, before+2, testutil.ToFloat64(showsCounter("not_found")), 0.001)
}

func TestObserveDroppedCluesIgnoresZero(t *testing.T) {
	Init()
	before := testutil.ToFloat64(archiveCluesDroppedTotal)
	ObserveDroppedClues(0)
	ObserveDroppedClues(3)
	assert.InDelta(t, before+3, testutil.ToFloat64(archiveCluesDroppedTotal), 0.001)
}

func TestObserveGradeLabels(t *testing.T) {
	Init()
	before := testutil.ToFloat64(archiveGradesTotal.WithLabelValues("correct"))
	ObserveGrade(true)
	assert.InDelta(t, before+1, testutil.ToFloat64(archiveGradesTotal.WithLabelValues("correct")), 0.001)
}

func TestMiddlewareRecordsRoute(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/games/{show_id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "418"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/games/12", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.InDelta(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "418")), 0.001)
}

func TestObservePolitenessWait(t *testing.T) {
	ObservePolitenessWait(1200 * time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(archivePolitenessWaitSeconds))
}

func showsCounter(outcome string) prometheus.Counter {
	Init()
	return archiveShowsTotal.WithLabelValues(outcome)
}
