package archive

import (
	"context"
	"time"
)

// CacheStore keeps raw fetched pages keyed by a deterministic name.
type CacheStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, content []byte) error
}

// Repository persists parsed shows.
type Repository interface {
	UpsertShow(ctx context.Context, showID int64, parsed ParsedShow) (UpsertReport, error)
	ShowsExist(ctx context.Context, showIDs []int64) (map[int64]struct{}, error)
	RandomCompleteShow(ctx context.Context) (int64, error)
	LoadBoard(ctx context.Context, showID int64) (Board, error)
	GetClue(ctx context.Context, clueID int64) (Clue, error)
	Close() error
}

// Publisher pushes ingestion notifications to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
