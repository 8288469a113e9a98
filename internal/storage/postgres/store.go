// Package postgres implements the archive repository on PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/trivia-archive/internal/archive"
	"github.com/JakeFAU/trivia-archive/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

// Config controls the connection pool and the schema source.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	SchemaFile      string
}

type pool interface {
	Begin(context.Context) (pgx.Tx, error)
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// Store is a Repository backed by a pgx connection pool.
type Store struct {
	pool   pool
	logger *zap.Logger
}

var _ archive.Repository = (*Store)(nil)

// New connects to Postgres and applies the schema.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	schema, err := storage.LoadSchema(schemaSQL, cfg.SchemaFile)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := &Store{pool: p, logger: orNop(logger)}
	if err := store.migrate(ctx, schema); err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
// The schema is not applied.
func NewWithPool(p pool, logger *zap.Logger) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: p, logger: orNop(logger)}, nil
}

func (s *Store) migrate(ctx context.Context, schema string) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// UpsertShow writes one parsed show in a single transaction.
func (s *Store) UpsertShow(ctx context.Context, showID int64, parsed archive.ParsedShow) (archive.UpsertReport, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return archive.UpsertReport{}, fmt.Errorf("begin show tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	report, err := storage.WriteShow(ctx, txWriter{tx: tx}, showID, parsed, s.logger)
	if err != nil {
		return archive.UpsertReport{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return archive.UpsertReport{}, fmt.Errorf("commit show %d: %w", showID, err)
	}
	return report, nil
}

// ShowsExist returns the subset of ids already stored.
func (s *Store) ShowsExist(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	found := make(map[int64]struct{})
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT id FROM shows WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query existing shows: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan show id: %w", err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate show ids: %w", err)
	}
	return found, nil
}

type txWriter struct {
	tx pgx.Tx
}

func (w txWriter) PutShow(ctx context.Context, show archive.Show) error {
	_, err := w.tx.Exec(ctx, `
INSERT INTO shows (id, show_number, air_date, title) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
	show_number = EXCLUDED.show_number,
	air_date = EXCLUDED.air_date,
	title = EXCLUDED.title`,
		show.ID, show.ShowNumber, dateArg(show.AirDate), show.Title)
	return err
}

func (w txWriter) EnsureRound(ctx context.Context, showID int64, kind archive.RoundKind) (int64, error) {
	if _, err := w.tx.Exec(ctx,
		`INSERT INTO rounds (show_id, name) VALUES ($1, $2) ON CONFLICT (show_id, name) DO NOTHING`,
		showID, string(kind)); err != nil {
		return 0, err
	}
	var id int64
	err := w.tx.QueryRow(ctx,
		`SELECT id FROM rounds WHERE show_id = $1 AND name = $2`, showID, string(kind)).Scan(&id)
	return id, err
}

func (w txWriter) PutCategory(ctx context.Context, c archive.Category) (int64, error) {
	var id int64
	err := w.tx.QueryRow(ctx, `
INSERT INTO categories (round_id, position, name, comments) VALUES ($1, $2, $3, $4)
ON CONFLICT (round_id, position) DO UPDATE SET
	name = EXCLUDED.name,
	comments = EXCLUDED.comments
RETURNING id`,
		c.RoundID, c.Position, c.Name, c.Comments).Scan(&id)
	return id, err
}

func (w txWriter) PutClue(ctx context.Context, c archive.Clue) error {
	_, err := w.tx.Exec(ctx, `
INSERT INTO clues (round_id, category_id, row_index, value, is_daily_double, question, answer)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (category_id, row_index) DO UPDATE SET
	round_id = EXCLUDED.round_id,
	value = EXCLUDED.value,
	is_daily_double = EXCLUDED.is_daily_double,
	question = EXCLUDED.question,
	answer = EXCLUDED.answer`,
		c.RoundID, c.CategoryID, c.Row, c.Value, c.DailyDouble, c.Question, c.Answer)
	return err
}

func dateArg(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
