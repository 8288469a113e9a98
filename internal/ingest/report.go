package ingest

import (
	"fmt"
	"time"

	"github.com/JakeFAU/trivia-archive/internal/archive"
)

// Outcome classifies how ingestion of one show ended.
type Outcome string

// Show outcomes.
const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
)

// ShowResult records one show attempt.
type ShowResult struct {
	ShowID    int64
	Outcome   Outcome
	Reason    string
	Err       error
	FromCache bool
	Report    archive.UpsertReport

	parsed archive.ParsedShow
}

// String renders the logged outcome, e.g. "failed: fetch: ...".
func (r ShowResult) String() string {
	if r.Outcome == OutcomeFailed {
		return fmt.Sprintf("%s: %s", r.Outcome, r.Reason)
	}
	return string(r.Outcome)
}

func (r ShowResult) fail(stage string, err error) ShowResult {
	r.Outcome = OutcomeFailed
	r.Err = err
	r.Reason = fmt.Sprintf("%s: %v", stage, err)
	return r
}

// Report summarizes one season run.
type Report struct {
	RunID      string
	Season     int
	Listed     int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []ShowResult
}

// Attempted returns the ids that were fetched, in order.
func (r Report) Attempted() []int64 {
	ids := make([]int64, len(r.Results))
	for i, res := range r.Results {
		ids[i] = res.ShowID
	}
	return ids
}

// Count returns how many attempts ended with outcome.
func (r Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Notice is published after a show is stored.
type Notice struct {
	ShowID     int64     `json:"show_id"`
	Season     *int      `json:"season,omitempty"`
	ShowNumber *int      `json:"show_number,omitempty"`
	AirDate    *string   `json:"air_date,omitempty"`
	ClueCount  int       `json:"clue_count"`
	Dropped    int       `json:"dropped"`
	IngestedAt time.Time `json:"ingested_at"`
	RunID      string    `json:"run_id"`
}
