// Package fetcher retrieves show and season pages from the source site through
// the page cache, using a Colly collector for the network and a politeness
// limiter between requests.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/trivia-archive/internal/archive"
	"github.com/JakeFAU/trivia-archive/internal/cache"
	"github.com/JakeFAU/trivia-archive/internal/metrics"
)

// Config controls source endpoints and request behavior.
type Config struct {
	BaseURL        string
	ShowPath       string
	SeasonPath     string
	UserAgent      string
	MinInterval    time.Duration
	Timeout        time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Result is the outcome of one fetch. NotFound is set when the source answered
// 404; Body is empty in that case.
type Result struct {
	Body      []byte
	FromCache bool
	NotFound  bool
}

// Fetcher implements cache-first page retrieval.
type Fetcher struct {
	cfg           Config
	cache         archive.CacheStore
	politeness    *politeness
	retry         *retryPolicy
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher over the given cache.
func New(cfg Config, store archive.CacheStore, logger *zap.Logger) (*Fetcher, error) {
	if store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	c := colly.NewCollector(colly.Async(false))
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}

	return &Fetcher{
		cfg:           cfg,
		cache:         store,
		politeness:    newPoliteness(cfg.MinInterval),
		retry:         newRetryPolicy(cfg.MaxRetries, cfg.BackoffInitial, cfg.BackoffMax),
		baseCollector: c,
		logger:        logger,
	}, nil
}

// FetchShow retrieves the page of one show.
func (f *Fetcher) FetchShow(ctx context.Context, showID int64) (Result, error) {
	return f.Fetch(ctx, f.url(f.cfg.ShowPath, showID), cache.ShowKey(showID))
}

// FetchSeason retrieves the index page of one season.
func (f *Fetcher) FetchSeason(ctx context.Context, season int) (Result, error) {
	return f.Fetch(ctx, f.url(f.cfg.SeasonPath, season), cache.SeasonKey(season))
}

// Fetch returns the cached content for cacheKey when present; otherwise it
// waits out the politeness interval, requests url and caches a successful
// body before returning it. A 404 is reported as Result.NotFound with a nil
// error; every other failure wraps archive.ErrTransport.
func (f *Fetcher) Fetch(ctx context.Context, url, cacheKey string) (Result, error) {
	hit, err := f.cache.Exists(ctx, cacheKey)
	if err != nil {
		return Result{}, fmt.Errorf("check cache %s: %w", cacheKey, err)
	}
	if hit {
		body, err := f.cache.Read(ctx, cacheKey)
		if err != nil {
			return Result{}, fmt.Errorf("read cache %s: %w", cacheKey, err)
		}
		metrics.ObserveFetch("cache", "hit")
		f.logger.Debug("cache hit", zap.String("cache_key", cacheKey))
		return Result{Body: body, FromCache: true}, nil
	}

	for attempt := 0; ; attempt++ {
		if err := f.politeness.wait(ctx); err != nil {
			return Result{}, fmt.Errorf("politeness wait: %w", err)
		}
		status, body, err := f.visit(ctx, url)
		if status == http.StatusNotFound {
			metrics.ObserveFetch("network", "not_found")
			f.logger.Info("page not found", zap.String("url", url))
			return Result{NotFound: true}, nil
		}
		if err == nil {
			metrics.ObserveFetch("network", "ok")
			if werr := f.cache.Write(ctx, cacheKey, body); werr != nil {
				f.logger.Warn("cache write failed", zap.String("cache_key", cacheKey), zap.Error(werr))
			}
			return Result{Body: body}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("fetch %s: %w", url, ctxErr)
		}
		metrics.ObserveFetch("network", statusLabel(status))
		if !f.retry.shouldRetry(status, err, attempt) {
			return Result{}, fmt.Errorf("fetch %s: %w: %w", url, archive.ErrTransport, err)
		}
		backoff := f.retry.backoff(attempt)
		f.logger.Warn("fetch failed, retrying",
			zap.String("url", url),
			zap.Int("status", status),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if err := sleep(ctx, backoff); err != nil {
			return Result{}, fmt.Errorf("fetch backoff: %w", err)
		}
	}
}

// visit performs one GET and returns the response status (0 when no response
// arrived), the body on success, and the failure otherwise.
func (f *Fetcher) visit(ctx context.Context, url string) (int, []byte, error) {
	collector := f.baseCollector.Clone()

	var (
		status  int
		body    []byte
		hookErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		if err == nil {
			err = errors.New("unknown colly error")
		}
		hookErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return 0, nil, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if hookErr != nil {
			return status, nil, fmt.Errorf("colly response failed: %w", hookErr)
		}
		if err != nil {
			return status, nil, fmt.Errorf("colly visit failed: %w", err)
		}
		return status, body, nil
	}
}

func (f *Fetcher) url(pathFormat string, id any) string {
	return strings.TrimRight(f.cfg.BaseURL, "/") + fmt.Sprintf(pathFormat, id)
}

func statusLabel(status int) string {
	if status == 0 {
		return "transport_error"
	}
	return fmt.Sprintf("%dxx", status/100)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
	}
}
