package archive

import "time"

// RoundKind identifies one of the three structural phases of a show. The
// string values are the persisted round names.
type RoundKind string

// Round kinds in board order.
const (
	RoundFirst  RoundKind = "jeopardy"
	RoundSecond RoundKind = "double"
	RoundFinal  RoundKind = "final"
)

// FinalCategoryPlaceholder names the category synthesized for a final round
// whose page carries no category header.
const FinalCategoryPlaceholder = "FINAL JEOPARDY"

// Valid reports whether k is one of the known round kinds.
func (k RoundKind) Valid() bool {
	switch k {
	case RoundFirst, RoundSecond, RoundFinal:
		return true
	default:
		return false
	}
}

// Order returns the board position of the round kind (0 for first).
func (k RoundKind) Order() int {
	switch k {
	case RoundFirst:
		return 0
	case RoundSecond:
		return 1
	case RoundFinal:
		return 2
	default:
		return 3
	}
}

// ParsedShow is the structured record extracted from one show page.
type ParsedShow struct {
	Title      string
	AirDate    *time.Time
	ShowNumber *int
	Rounds     []ParsedRound
	Categories []ParsedCategory
	Clues      []ParsedClue
}

// ParsedRound marks a round section found on the page.
type ParsedRound struct {
	Kind RoundKind
}

// ParsedCategory is a category header within a round.
type ParsedCategory struct {
	Round    RoundKind
	Position int
	Name     string
	Comments *string
}

// ParsedClue is one revealed clue cell. CategoryPosition refers to the column
// of the clue within its round.
type ParsedClue struct {
	Round            RoundKind
	CategoryPosition int
	Row              int
	Value            *int
	DailyDouble      bool
	Question         string
	Answer           string
}

// Show is a persisted show row.
type Show struct {
	ID         int64      `json:"id"`
	ShowNumber *int       `json:"show_number,omitempty"`
	AirDate    *time.Time `json:"air_date,omitempty"`
	Title      string     `json:"title"`
}

// Round is a persisted round row.
type Round struct {
	ID     int64     `json:"id"`
	ShowID int64     `json:"show_id"`
	Kind   RoundKind `json:"name"`
}

// Category is a persisted category row.
type Category struct {
	ID       int64   `json:"id"`
	RoundID  int64   `json:"round_id"`
	Position int     `json:"position"`
	Name     string  `json:"name"`
	Comments *string `json:"comments,omitempty"`
}

// Clue is a persisted clue row.
type Clue struct {
	ID          int64  `json:"id"`
	RoundID     int64  `json:"round_id"`
	CategoryID  int64  `json:"category_id"`
	Row         int    `json:"row_index"`
	Value       *int   `json:"value,omitempty"`
	DailyDouble bool   `json:"is_daily_double"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
}

// Board is a show with every persisted round, category and clue, ordered by
// round, category position and row.
type Board struct {
	Show   Show         `json:"show"`
	Rounds []BoardRound `json:"rounds"`
}

// BoardRound groups the categories of one round.
type BoardRound struct {
	Round      Round           `json:"round"`
	Categories []BoardCategory `json:"categories"`
}

// BoardCategory groups the clues of one category.
type BoardCategory struct {
	Category Category `json:"category"`
	Clues    []Clue   `json:"clues"`
}

// UpsertReport summarizes what one UpsertShow call wrote.
type UpsertReport struct {
	Rounds     int
	Categories int
	Clues      int
	Dropped    int
}
