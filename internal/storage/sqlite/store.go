// Package sqlite implements the archive repository on an embedded SQLite
// database file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/JakeFAU/trivia-archive/internal/archive"
	"github.com/JakeFAU/trivia-archive/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

const dateLayout = "2006-01-02"

// existsChunk bounds the number of ids bound into one existence query.
const existsChunk = 500

// Config selects the database file and an optional schema override.
type Config struct {
	Path       string
	SchemaFile string
}

// Store is a Repository backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ archive.Repository = (*Store)(nil)

// Open connects to the database file, applies pragmas and creates the schema.
// It returns an error wrapping archive.ErrSchemaMissing when no schema script
// is available.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	schema, err := storage.LoadSchema(schemaSQL, cfg.SchemaFile)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps pragmas and transactions on the same handle.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertShow writes one parsed show in a single transaction.
func (s *Store) UpsertShow(ctx context.Context, showID int64, parsed archive.ParsedShow) (archive.UpsertReport, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return archive.UpsertReport{}, fmt.Errorf("begin show tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	report, err := storage.WriteShow(ctx, txWriter{tx: tx}, showID, parsed, s.logger)
	if err != nil {
		return archive.UpsertReport{}, err
	}
	if err := tx.Commit(); err != nil {
		return archive.UpsertReport{}, fmt.Errorf("commit show %d: %w", showID, err)
	}
	return report, nil
}

// ShowsExist returns the subset of ids already stored.
func (s *Store) ShowsExist(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	found := make(map[int64]struct{})
	for start := 0; start < len(ids); start += existsChunk {
		end := min(start+existsChunk, len(ids))
		chunk := ids[start:end]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		query := "SELECT id FROM shows WHERE id IN (" + placeholders(len(chunk)) + ")"
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("query existing shows: %w", err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scan show id: %w", err)
			}
			found[id] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("iterate show ids: %w", err)
		}
		_ = rows.Close()
	}
	return found, nil
}

type txWriter struct {
	tx *sql.Tx
}

func (w txWriter) PutShow(ctx context.Context, show archive.Show) error {
	_, err := w.tx.ExecContext(ctx, `
INSERT INTO shows (id, show_number, air_date, title) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	show_number = excluded.show_number,
	air_date = excluded.air_date,
	title = excluded.title`,
		show.ID, nullableInt(show.ShowNumber), nullableDate(show.AirDate), show.Title)
	return err
}

func (w txWriter) EnsureRound(ctx context.Context, showID int64, kind archive.RoundKind) (int64, error) {
	if _, err := w.tx.ExecContext(ctx,
		`INSERT INTO rounds (show_id, name) VALUES (?, ?) ON CONFLICT(show_id, name) DO NOTHING`,
		showID, string(kind)); err != nil {
		return 0, err
	}
	var id int64
	err := w.tx.QueryRowContext(ctx,
		`SELECT id FROM rounds WHERE show_id = ? AND name = ?`, showID, string(kind)).Scan(&id)
	return id, err
}

func (w txWriter) PutCategory(ctx context.Context, c archive.Category) (int64, error) {
	var id int64
	err := w.tx.QueryRowContext(ctx, `
INSERT INTO categories (round_id, position, name, comments) VALUES (?, ?, ?, ?)
ON CONFLICT(round_id, position) DO UPDATE SET
	name = excluded.name,
	comments = excluded.comments
RETURNING id`,
		c.RoundID, c.Position, c.Name, nullableString(c.Comments)).Scan(&id)
	return id, err
}

func (w txWriter) PutClue(ctx context.Context, c archive.Clue) error {
	_, err := w.tx.ExecContext(ctx, `
INSERT INTO clues (round_id, category_id, row_index, value, is_daily_double, question, answer)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(category_id, row_index) DO UPDATE SET
	round_id = excluded.round_id,
	value = excluded.value,
	is_daily_double = excluded.is_daily_double,
	question = excluded.question,
	answer = excluded.answer`,
		c.RoundID, c.CategoryID, c.Row, nullableInt(c.Value), c.DailyDouble, c.Question, c.Answer)
	return err
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableDate(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.Format(dateLayout)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
