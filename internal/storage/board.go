package storage

import (
	"cmp"
	"slices"

	"github.com/JakeFAU/trivia-archive/internal/archive"
)

// A show is complete when its first and second rounds each carry
// CompleteCategories categories and at least CompleteClues clues.
const (
	CompleteCategories = 6
	CompleteClues      = 30
)

// AssembleBoard nests rows of one show into a Board ordered by round kind,
// category position and clue row. Rows whose parent is missing are skipped.
func AssembleBoard(show archive.Show, rounds []archive.Round, categories []archive.Category, clues []archive.Clue) archive.Board {
	board := archive.Board{Show: show, Rounds: make([]archive.BoardRound, 0, len(rounds))}

	slices.SortFunc(rounds, func(a, b archive.Round) int {
		return cmp.Compare(a.Kind.Order(), b.Kind.Order())
	})
	slices.SortFunc(categories, func(a, b archive.Category) int {
		return cmp.Compare(a.Position, b.Position)
	})
	slices.SortFunc(clues, func(a, b archive.Clue) int {
		return cmp.Compare(a.Row, b.Row)
	})

	cluesByCategory := make(map[int64][]archive.Clue)
	for _, c := range clues {
		cluesByCategory[c.CategoryID] = append(cluesByCategory[c.CategoryID], c)
	}
	categoriesByRound := make(map[int64][]archive.BoardCategory)
	for _, c := range categories {
		categoriesByRound[c.RoundID] = append(categoriesByRound[c.RoundID], archive.BoardCategory{
			Category: c,
			Clues:    nonNil(cluesByCategory[c.ID]),
		})
	}
	for _, r := range rounds {
		board.Rounds = append(board.Rounds, archive.BoardRound{
			Round:      r,
			Categories: nonNil(categoriesByRound[r.ID]),
		})
	}
	return board
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
