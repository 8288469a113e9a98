package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/trivia-archive/internal/archive"
)

type recordingWriter struct {
	shows      []archive.Show
	rounds     map[archive.RoundKind]int64
	categories []archive.Category
	clues      []archive.Clue
	clueErr    error
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{rounds: make(map[archive.RoundKind]int64)}
}

func (w *recordingWriter) PutShow(_ context.Context, show archive.Show) error {
	w.shows = append(w.shows, show)
	return nil
}

func (w *recordingWriter) EnsureRound(_ context.Context, _ int64, kind archive.RoundKind) (int64, error) {
	if id, ok := w.rounds[kind]; ok {
		return id, nil
	}
	id := int64(len(w.rounds) + 1)
	w.rounds[kind] = id
	return id, nil
}

func (w *recordingWriter) PutCategory(_ context.Context, c archive.Category) (int64, error) {
	w.categories = append(w.categories, c)
	return int64(100 + len(w.categories)), nil
}

func (w *recordingWriter) PutClue(_ context.Context, c archive.Clue) error {
	if w.clueErr != nil {
		return w.clueErr
	}
	w.clues = append(w.clues, c)
	return nil
}

func TestWriteShowResolvesCategories(t *testing.T) {
	t.Parallel()

	number := 4680
	parsed := archive.ParsedShow{
		Title:      "Show #4680",
		ShowNumber: &number,
		Rounds:     []archive.ParsedRound{{Kind: archive.RoundFirst}, {Kind: archive.RoundFinal}},
		Categories: []archive.ParsedCategory{
			{Round: archive.RoundFirst, Position: 0, Name: "HISTORY"},
			{Round: archive.RoundFirst, Position: 1, Name: "SCIENCE"},
		},
		Clues: []archive.ParsedClue{
			{Round: archive.RoundFirst, CategoryPosition: 1, Row: 0, Question: "q1", Answer: "a1"},
			{Round: archive.RoundFirst, CategoryPosition: 5, Row: 0, Question: "orphan"},
			{Round: archive.RoundFinal, Question: "final q", Answer: "final a"},
		},
	}

	w := newRecordingWriter()
	report, err := WriteShow(context.Background(), w, 77, parsed, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, archive.UpsertReport{Rounds: 2, Categories: 3, Clues: 2, Dropped: 1}, report)
	require.Len(t, w.shows, 1)
	assert.Equal(t, int64(77), w.shows[0].ID)
	assert.Equal(t, &number, w.shows[0].ShowNumber)

	require.Len(t, w.categories, 3)
	assert.Equal(t, archive.Category{RoundID: w.rounds[archive.RoundFinal], Position: 0, Name: archive.FinalCategoryPlaceholder}, w.categories[2])

	require.Len(t, w.clues, 2)
	assert.Equal(t, int64(102), w.clues[0].CategoryID)
	assert.Equal(t, w.rounds[archive.RoundFirst], w.clues[0].RoundID)
	assert.Equal(t, int64(103), w.clues[1].CategoryID)
	assert.Equal(t, w.rounds[archive.RoundFinal], w.clues[1].RoundID)
}

func TestWriteShowDropsSecondRoundWithoutCategories(t *testing.T) {
	t.Parallel()

	parsed := archive.ParsedShow{
		Rounds: []archive.ParsedRound{{Kind: archive.RoundSecond}},
		Clues: []archive.ParsedClue{
			{Round: archive.RoundSecond, CategoryPosition: 0, Row: 0, Question: "q"},
			{Round: archive.RoundSecond, CategoryPosition: 1, Row: 0, Question: "q"},
		},
	}

	w := newRecordingWriter()
	report, err := WriteShow(context.Background(), w, 1, parsed, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Dropped)
	assert.Equal(t, 0, report.Clues)
	assert.Empty(t, w.categories)
}

func TestWriteShowPropagatesWriteErrors(t *testing.T) {
	t.Parallel()

	parsed := archive.ParsedShow{
		Rounds:     []archive.ParsedRound{{Kind: archive.RoundFirst}},
		Categories: []archive.ParsedCategory{{Round: archive.RoundFirst, Position: 0, Name: "X"}},
		Clues:      []archive.ParsedClue{{Round: archive.RoundFirst, Question: "q"}},
	}
	boom := errors.New("disk I/O error")
	w := newRecordingWriter()
	w.clueErr = boom

	_, err := WriteShow(context.Background(), w, 1, parsed, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestLoadSchema(t *testing.T) {
	t.Parallel()

	got, err := LoadSchema("CREATE TABLE t (id INTEGER);", "")
	require.NoError(t, err)
	assert.Contains(t, got, "CREATE TABLE")

	path := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE custom (id INTEGER);"), 0o600))
	got, err = LoadSchema("CREATE TABLE t (id INTEGER);", path)
	require.NoError(t, err)
	assert.Contains(t, got, "custom")

	_, err = LoadSchema("CREATE TABLE t (id INTEGER);", filepath.Join(t.TempDir(), "missing.sql"))
	assert.ErrorIs(t, err, archive.ErrSchemaMissing)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadSchema("  ", "")
	assert.ErrorIs(t, err, archive.ErrSchemaMissing)
}
