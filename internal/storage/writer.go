// Package storage holds the persistence logic shared by the relational
// repository backends: the per-show write algorithm and schema loading.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/trivia-archive/internal/archive"
)

// ShowWriter performs the row-level writes of one show inside a single
// transaction.
type ShowWriter interface {
	// PutShow inserts the show or overwrites its metadata.
	PutShow(ctx context.Context, show archive.Show) error
	// EnsureRound inserts the round if absent and returns its id.
	EnsureRound(ctx context.Context, showID int64, kind archive.RoundKind) (int64, error)
	// PutCategory inserts the category or overwrites its name and comments,
	// keeping the id of an existing row.
	PutCategory(ctx context.Context, category archive.Category) (int64, error)
	// PutClue inserts the clue or overwrites the row at its position.
	PutClue(ctx context.Context, clue archive.Clue) error
}

type categoryKey struct {
	kind     archive.RoundKind
	position int
}

type resolvedCategory struct {
	id      int64
	roundID int64
}

// WriteShow applies a parsed show through w. Clues that cannot be resolved to a
// category are dropped and counted; a final-round clue without a category gets
// a placeholder category first. Any write error aborts the show.
func WriteShow(ctx context.Context, w ShowWriter, showID int64, parsed archive.ParsedShow, logger *zap.Logger) (archive.UpsertReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var report archive.UpsertReport

	show := archive.Show{
		ID:         showID,
		ShowNumber: parsed.ShowNumber,
		AirDate:    parsed.AirDate,
		Title:      parsed.Title,
	}
	if err := w.PutShow(ctx, show); err != nil {
		return report, fmt.Errorf("put show %d: %w", showID, err)
	}

	rounds := make(map[archive.RoundKind]int64, len(parsed.Rounds))
	ensureRound := func(kind archive.RoundKind) (int64, error) {
		if id, ok := rounds[kind]; ok {
			return id, nil
		}
		id, err := w.EnsureRound(ctx, showID, kind)
		if err != nil {
			return 0, fmt.Errorf("ensure round %s: %w", kind, err)
		}
		rounds[kind] = id
		report.Rounds++
		return id, nil
	}
	for _, r := range parsed.Rounds {
		if !r.Kind.Valid() {
			logger.Debug("skipping unknown round", zap.Int64("show_id", showID), zap.String("round", string(r.Kind)))
			continue
		}
		if _, err := ensureRound(r.Kind); err != nil {
			return report, err
		}
	}

	categories := make(map[categoryKey]resolvedCategory, len(parsed.Categories))
	putCategory := func(kind archive.RoundKind, position int, name string, comments *string) error {
		roundID, err := ensureRound(kind)
		if err != nil {
			return err
		}
		id, err := w.PutCategory(ctx, archive.Category{
			RoundID:  roundID,
			Position: position,
			Name:     name,
			Comments: comments,
		})
		if err != nil {
			return fmt.Errorf("put category %s/%d: %w", kind, position, err)
		}
		categories[categoryKey{kind, position}] = resolvedCategory{id: id, roundID: roundID}
		report.Categories++
		return nil
	}
	for _, c := range parsed.Categories {
		if !c.Round.Valid() {
			continue
		}
		if err := putCategory(c.Round, c.Position, c.Name, c.Comments); err != nil {
			return report, err
		}
	}

	for _, clue := range parsed.Clues {
		key := categoryKey{clue.Round, clue.CategoryPosition}
		cat, ok := categories[key]
		if !ok && clue.Round == archive.RoundFinal {
			if _, synthesized := categories[categoryKey{archive.RoundFinal, 0}]; !synthesized {
				if err := putCategory(archive.RoundFinal, 0, archive.FinalCategoryPlaceholder, nil); err != nil {
					return report, err
				}
			}
			cat, ok = categories[key]
		}
		if !ok {
			logger.Warn("dropping clue",
				zap.Int64("show_id", showID),
				zap.String("round", string(clue.Round)),
				zap.Int("category_position", clue.CategoryPosition),
				zap.Int("row", clue.Row),
				zap.Error(archive.ErrReferentialGap),
			)
			report.Dropped++
			continue
		}
		err := w.PutClue(ctx, archive.Clue{
			RoundID:     cat.roundID,
			CategoryID:  cat.id,
			Row:         clue.Row,
			Value:       clue.Value,
			DailyDouble: clue.DailyDouble,
			Question:    clue.Question,
			Answer:      clue.Answer,
		})
		if err != nil {
			return report, fmt.Errorf("put clue %s/%d/%d: %w", clue.Round, clue.CategoryPosition, clue.Row, err)
		}
		report.Clues++
	}
	return report, nil
}
