package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JakeFAU/trivia-archive/internal/archive"
	"github.com/JakeFAU/trivia-archive/internal/storage"
)

const completeShowQuery = `
SELECT s.id FROM shows s
WHERE s.id IN (
	SELECT r.show_id FROM rounds r
	JOIN categories c ON c.round_id = r.id
	JOIN clues cl ON cl.category_id = c.id
	WHERE r.name = $1
	GROUP BY r.show_id
	HAVING COUNT(cl.id) >= $3 AND COUNT(DISTINCT c.id) = $4
) AND s.id IN (
	SELECT r.show_id FROM rounds r
	JOIN categories c ON c.round_id = r.id
	JOIN clues cl ON cl.category_id = c.id
	WHERE r.name = $2
	GROUP BY r.show_id
	HAVING COUNT(cl.id) >= $3 AND COUNT(DISTINCT c.id) = $4
)
ORDER BY random()
LIMIT 1`

const clueColumns = `cl.id, cl.round_id, cl.category_id, cl.row_index, cl.value, cl.is_daily_double, cl.question, cl.answer`

// RandomCompleteShow picks a show whose first and second rounds are fully
// populated. It returns archive.ErrNotFound when there is none.
func (s *Store) RandomCompleteShow(ctx context.Context) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, completeShowQuery,
		string(archive.RoundFirst), string(archive.RoundSecond),
		storage.CompleteClues, storage.CompleteCategories,
	).Scan(&id)
	if isNoRows(err) {
		return 0, fmt.Errorf("complete show: %w", archive.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("query complete show: %w", err)
	}
	return id, nil
}

// LoadBoard reads one show with all of its rounds, categories and clues.
func (s *Store) LoadBoard(ctx context.Context, showID int64) (archive.Board, error) {
	show, err := s.loadShow(ctx, showID)
	if err != nil {
		return archive.Board{}, err
	}
	rounds, err := s.loadRounds(ctx, showID)
	if err != nil {
		return archive.Board{}, err
	}
	categories, err := s.loadCategories(ctx, showID)
	if err != nil {
		return archive.Board{}, err
	}
	clues, err := s.loadClues(ctx,
		`SELECT `+clueColumns+` FROM clues cl JOIN rounds r ON r.id = cl.round_id WHERE r.show_id = $1`, showID)
	if err != nil {
		return archive.Board{}, err
	}
	return storage.AssembleBoard(show, rounds, categories, clues), nil
}

// GetClue reads one clue by id.
func (s *Store) GetClue(ctx context.Context, clueID int64) (archive.Clue, error) {
	clues, err := s.loadClues(ctx, `SELECT `+clueColumns+` FROM clues cl WHERE cl.id = $1`, clueID)
	if err != nil {
		return archive.Clue{}, err
	}
	if len(clues) == 0 {
		return archive.Clue{}, fmt.Errorf("clue %d: %w", clueID, archive.ErrNotFound)
	}
	return clues[0], nil
}

func (s *Store) loadShow(ctx context.Context, showID int64) (archive.Show, error) {
	var (
		show    archive.Show
		number  pgtype.Int4
		airDate pgtype.Date
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, show_number, air_date, title FROM shows WHERE id = $1`, showID,
	).Scan(&show.ID, &number, &airDate, &show.Title)
	if isNoRows(err) {
		return archive.Show{}, fmt.Errorf("show %d: %w", showID, archive.ErrNotFound)
	}
	if err != nil {
		return archive.Show{}, fmt.Errorf("query show %d: %w", showID, err)
	}
	show.ShowNumber = intOrNil(number)
	if airDate.Valid {
		t := airDate.Time
		show.AirDate = &t
	}
	return show, nil
}

func (s *Store) loadRounds(ctx context.Context, showID int64) ([]archive.Round, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, show_id, name FROM rounds WHERE show_id = $1`, showID)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var out []archive.Round
	for rows.Next() {
		var (
			r    archive.Round
			name string
		)
		if err := rows.Scan(&r.ID, &r.ShowID, &name); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.Kind = archive.RoundKind(name)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return out, nil
}

func (s *Store) loadCategories(ctx context.Context, showID int64) ([]archive.Category, error) {
	rows, err := s.pool.Query(ctx, `
SELECT c.id, c.round_id, c.position, c.name, c.comments
FROM categories c JOIN rounds r ON r.id = c.round_id
WHERE r.show_id = $1`, showID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []archive.Category
	for rows.Next() {
		var (
			c        archive.Category
			position int32
			comments pgtype.Text
		)
		if err := rows.Scan(&c.ID, &c.RoundID, &position, &c.Name, &comments); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Position = int(position)
		if comments.Valid {
			v := comments.String
			c.Comments = &v
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (s *Store) loadClues(ctx context.Context, query string, args ...any) ([]archive.Clue, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query clues: %w", err)
	}
	defer rows.Close()

	var out []archive.Clue
	for rows.Next() {
		var (
			c     archive.Clue
			row   int32
			value pgtype.Int4
		)
		if err := rows.Scan(&c.ID, &c.RoundID, &c.CategoryID, &row, &value, &c.DailyDouble, &c.Question, &c.Answer); err != nil {
			return nil, fmt.Errorf("scan clue: %w", err)
		}
		c.Row = int(row)
		c.Value = intOrNil(value)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clues: %w", err)
	}
	return out, nil
}

func intOrNil(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}
