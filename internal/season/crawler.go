// Package season enumerates the shows listed on a season index page.
package season

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/trivia-archive/internal/fetcher"
	"github.com/JakeFAU/trivia-archive/internal/parser"
)

// PageFetcher retrieves season index pages.
type PageFetcher interface {
	FetchSeason(ctx context.Context, season int) (fetcher.Result, error)
}

// Crawler lists show ids per season.
type Crawler struct {
	fetcher PageFetcher
	logger  *zap.Logger
}

// New creates a Crawler.
func New(f PageFetcher, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{fetcher: f, logger: logger}
}

// ListShowIDs returns the distinct show ids linked from the season page in
// ascending order. A missing or empty page yields an empty slice.
func (c *Crawler) ListShowIDs(ctx context.Context, season int) ([]int64, error) {
	res, err := c.fetcher.FetchSeason(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("fetch season %d: %w", season, err)
	}
	if res.NotFound || len(res.Body) == 0 {
		c.logger.Info("season page missing", zap.Int("season", season), zap.Bool("not_found", res.NotFound))
		return []int64{}, nil
	}
	ids, err := parser.ExtractShowIDs(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse season %d: %w", season, err)
	}
	c.logger.Debug("season listed",
		zap.Int("season", season),
		zap.Int("shows", len(ids)),
		zap.Bool("from_cache", res.FromCache),
	)
	return ids, nil
}
