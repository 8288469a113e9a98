package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/trivia-archive/internal/archive"
	"github.com/JakeFAU/trivia-archive/internal/cache/memory"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		ShowPath:       "/showgame.php?game_id=%d",
		SeasonPath:     "/showseason.php?season=%d",
		UserAgent:      "ArchiveTest/1.0",
		Timeout:        2 * time.Second,
		MaxRetries:     1,
		BackoffInitial: time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
	}
}

func newTestFetcher(t *testing.T, cfg Config, store *memory.Store) *Fetcher {
	t.Helper()
	f, err := New(cfg, store, zap.NewNop())
	require.NoError(t, err)
	return f
}

func TestNewRequiresCache(t *testing.T) {
	t.Parallel()

	_, err := New(testConfig("http://example.invalid"), nil, nil)
	require.Error(t, err)
}

func TestFetchShowCachesBody(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	var gotUA, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		gotUA = r.UserAgent()
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte("<html>show 42</html>"))
	}))
	defer srv.Close()

	store := memory.New()
	f := newTestFetcher(t, testConfig(srv.URL), store)

	res, err := f.FetchShow(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "<html>show 42</html>", string(res.Body))
	assert.False(t, res.FromCache)
	assert.False(t, res.NotFound)
	assert.Equal(t, "ArchiveTest/1.0", gotUA)
	assert.Equal(t, "game_id=42", gotQuery)

	cached, err := store.Read(context.Background(), "game_42.html")
	require.NoError(t, err)
	assert.Equal(t, res.Body, cached)

	again, err := f.FetchShow(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, again.FromCache)
	assert.Equal(t, res.Body, again.Body)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchCacheHitSkipsNetwork(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("network must not be used on a cache hit")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := memory.New()
	require.NoError(t, store.Write(context.Background(), "season_3.html", []byte("cached season")))
	f := newTestFetcher(t, testConfig(srv.URL), store)

	res, err := f.FetchSeason(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, "cached season", string(res.Body))
}

func TestFetchNotFoundIsNotCached(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	store := memory.New()
	f := newTestFetcher(t, testConfig(srv.URL), store)

	res, err := f.FetchShow(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, res.NotFound)
	assert.Empty(t, res.Body)
	assert.Equal(t, 0, store.Writes())
	assert.Equal(t, int32(1), hits.Load(), "404 is not retried")
}

func TestFetchServerErrorRetriesThenFails(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := memory.New()
	f := newTestFetcher(t, testConfig(srv.URL), store)

	_, err := f.FetchShow(context.Background(), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, archive.ErrTransport)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 0, store.Writes())
}

func TestFetchRecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig(srv.URL), memory.New())

	res, err := f.FetchShow(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(res.Body))
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig(srv.URL), memory.New())

	_, err := f.FetchShow(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, archive.ErrTransport)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchUnreachableHostWrapsTransport(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := testConfig(url)
	cfg.MaxRetries = 0
	f := newTestFetcher(t, cfg, memory.New())

	_, err := f.FetchShow(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, archive.ErrTransport)
}

func TestFetchEnforcesMinInterval(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("page"))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MinInterval = 60 * time.Millisecond
	f := newTestFetcher(t, cfg, memory.New())

	start := time.Now()
	for id := int64(1); id <= 2; id++ {
		_, err := f.FetchShow(context.Background(), id)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 110*time.Millisecond)
}

func TestFetchEnforcesMinIntervalBetweenRetries(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		hits []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits = append(hits, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	const interval = 80 * time.Millisecond
	cfg := testConfig(srv.URL)
	cfg.MinInterval = interval
	cfg.MaxRetries = 2
	f := newTestFetcher(t, cfg, memory.New())

	_, err := f.FetchShow(context.Background(), 1)
	require.ErrorIs(t, err, archive.ErrTransport)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, hits, 3)
	// Allow a few milliseconds for request latency jitter between attempts.
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i].Sub(hits[i-1]), interval-5*time.Millisecond, "gap before attempt %d", i+1)
	}
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("page"))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MinInterval = time.Hour
	f := newTestFetcher(t, cfg, memory.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchShow(ctx, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

type failingWriteCache struct {
	*memory.Store
}

func (failingWriteCache) Write(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestFetchReturnsContentWhenCacheWriteFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("page"))
	}))
	defer srv.Close()

	f, err := New(testConfig(srv.URL), failingWriteCache{memory.New()}, zap.NewNop())
	require.NoError(t, err)

	res, err := f.FetchShow(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "page", string(res.Body))
}

func TestRetryPolicy(t *testing.T) {
	t.Parallel()

	p := newRetryPolicy(2, 10*time.Millisecond, 40*time.Millisecond)
	failure := errors.New("boom")

	assert.True(t, p.shouldRetry(0, failure, 0))
	assert.True(t, p.shouldRetry(http.StatusTooManyRequests, failure, 1))
	assert.True(t, p.shouldRetry(http.StatusBadGateway, failure, 0))
	assert.False(t, p.shouldRetry(http.StatusBadGateway, failure, 2), "attempts exhausted")
	assert.False(t, p.shouldRetry(http.StatusForbidden, failure, 0))
	assert.False(t, p.shouldRetry(0, context.Canceled, 0))
	assert.False(t, p.shouldRetry(http.StatusOK, nil, 0))

	for attempt := 0; attempt < 5; attempt++ {
		d := p.backoff(attempt)
		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
		assert.LessOrEqual(t, d, 40*time.Millisecond)
	}
}
