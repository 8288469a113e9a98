// Package ingest drives season and single-show ingestion: list, filter,
// fetch, parse, persist and announce, one show at a time.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/trivia-archive/internal/archive"
	"github.com/JakeFAU/trivia-archive/internal/clock/system"
	"github.com/JakeFAU/trivia-archive/internal/fetcher"
	"github.com/JakeFAU/trivia-archive/internal/metrics"
	"github.com/JakeFAU/trivia-archive/internal/parser"
)

// ShowLister enumerates the shows of a season.
type ShowLister interface {
	ListShowIDs(ctx context.Context, season int) ([]int64, error)
}

// ShowFetcher retrieves show pages.
type ShowFetcher interface {
	FetchShow(ctx context.Context, showID int64) (fetcher.Result, error)
}

// ShowStore is the part of the repository ingestion writes through.
type ShowStore interface {
	UpsertShow(ctx context.Context, showID int64, parsed archive.ParsedShow) (archive.UpsertReport, error)
	ShowsExist(ctx context.Context, showIDs []int64) (map[int64]struct{}, error)
}

// Config controls Driver behavior.
type Config struct {
	// Limit truncates each season's listing before filtering; 0 means no limit.
	Limit int
	// Topic receives one notice per stored show; empty disables publishing.
	Topic string
}

// Driver runs ingestion sequentially.
type Driver struct {
	lister    ShowLister
	fetcher   ShowFetcher
	store     ShowStore
	publisher archive.Publisher
	ids       archive.IDGenerator
	clock     archive.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Driver. The publisher and id generator may be nil; a nil
// clock uses the wall clock.
func New(
	lister ShowLister,
	fetcher ShowFetcher,
	store ShowStore,
	publisher archive.Publisher,
	ids archive.IDGenerator,
	clock archive.Clock,
	cfg Config,
	logger *zap.Logger,
) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = system.New()
	}
	if cfg.Limit < 0 {
		cfg.Limit = 0
	}
	return &Driver{
		lister:    lister,
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		ids:       ids,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// IngestSeason ingests every listed show of season that is not stored yet, in
// ascending id order. Per-show failures are recorded in the report and never
// stop the run; only listing or the existence check can fail the season.
func (d *Driver) IngestSeason(ctx context.Context, season int) (Report, error) {
	report := Report{RunID: d.runID(), Season: season, StartedAt: d.clock.Now()}
	logger := d.logger.With(zap.String("run_id", report.RunID), zap.Int("season", season))

	ids, err := d.lister.ListShowIDs(ctx, season)
	if err != nil {
		return report, fmt.Errorf("list season %d: %w", season, err)
	}
	if d.cfg.Limit > 0 && len(ids) > d.cfg.Limit {
		ids = ids[:d.cfg.Limit]
	}
	report.Listed = len(ids)

	existing, err := d.store.ShowsExist(ctx, ids)
	if err != nil {
		return report, fmt.Errorf("check existing shows: %w", err)
	}
	pending := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := existing[id]; ok {
			continue
		}
		pending = append(pending, id)
	}
	report.Skipped = len(ids) - len(pending)

	if len(pending) == 0 {
		logger.Info("season up to date", zap.Int("listed", report.Listed))
		report.FinishedAt = d.clock.Now()
		return report, nil
	}
	logger.Info("ingesting season", zap.Int("listed", report.Listed), zap.Int("pending", len(pending)))

	for _, id := range pending {
		if ctx.Err() != nil {
			report.FinishedAt = d.clock.Now()
			return report, fmt.Errorf("season %d interrupted: %w", season, ctx.Err())
		}
		report.Results = append(report.Results, d.ingest(ctx, logger, report.RunID, season, id))
	}
	report.FinishedAt = d.clock.Now()
	logger.Info("season finished",
		zap.Int("ok", report.Count(OutcomeOK)),
		zap.Int("not_found", report.Count(OutcomeNotFound)),
		zap.Int("failed", report.Count(OutcomeFailed)),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// IngestShow fetches, parses and stores one show whether or not it is already
// stored, refreshing its rows.
func (d *Driver) IngestShow(ctx context.Context, showID int64) ShowResult {
	runID := d.runID()
	return d.ingest(ctx, d.logger.With(zap.String("run_id", runID)), runID, 0, showID)
}

func (d *Driver) ingest(ctx context.Context, logger *zap.Logger, runID string, season int, showID int64) ShowResult {
	res := d.process(ctx, showID)
	metrics.ObserveShow(string(res.Outcome))

	fields := []zap.Field{zap.Int64("show_id", showID), zap.String("outcome", res.String())}
	switch res.Outcome {
	case OutcomeOK:
		metrics.ObserveDroppedClues(res.Report.Dropped)
		logger.Info("show ingested", append(fields,
			zap.Int("clues", res.Report.Clues),
			zap.Int("dropped", res.Report.Dropped),
			zap.Bool("from_cache", res.FromCache),
		)...)
		d.announce(ctx, logger, runID, season, showID, res)
	case OutcomeNotFound:
		logger.Info("show not found", fields...)
	default:
		logger.Warn("show failed", append(fields, zap.Error(res.Err))...)
	}
	return res
}

func (d *Driver) process(ctx context.Context, showID int64) ShowResult {
	res := ShowResult{ShowID: showID}

	page, err := d.fetcher.FetchShow(ctx, showID)
	if err != nil {
		return res.fail("fetch", err)
	}
	res.FromCache = page.FromCache
	if page.NotFound {
		res.Outcome = OutcomeNotFound
		return res
	}

	parsed, err := parser.ParseShow(page.Body)
	if err != nil {
		return res.fail("parse", err)
	}
	res.parsed = parsed

	report, err := d.store.UpsertShow(ctx, showID, parsed)
	if err != nil {
		return res.fail("store", err)
	}
	res.Report = report
	res.Outcome = OutcomeOK
	return res
}

func (d *Driver) announce(ctx context.Context, logger *zap.Logger, runID string, season int, showID int64, res ShowResult) {
	if d.publisher == nil || d.cfg.Topic == "" {
		return
	}
	notice := Notice{
		ShowID:     showID,
		ShowNumber: res.parsed.ShowNumber,
		ClueCount:  res.Report.Clues,
		Dropped:    res.Report.Dropped,
		IngestedAt: d.clock.Now(),
		RunID:      runID,
	}
	if season > 0 {
		notice.Season = &season
	}
	if res.parsed.AirDate != nil {
		date := res.parsed.AirDate.Format(time.DateOnly)
		notice.AirDate = &date
	}
	msgID, err := d.publisher.Publish(ctx, d.cfg.Topic, notice)
	if err != nil {
		logger.Warn("publish notice failed", zap.Int64("show_id", showID), zap.Error(err))
		return
	}
	logger.Debug("notice published", zap.Int64("show_id", showID), zap.String("message_id", msgID))
}

func (d *Driver) runID() string {
	if d.ids == nil {
		return ""
	}
	id, err := d.ids.NewID()
	if err != nil {
		d.logger.Warn("run id generation failed", zap.Error(err))
		return ""
	}
	return id
}
