package store

import (
	"context"
	"time"
)

// BlobRepo stores whole documents under a key. Each Put rewrites the value.
type BlobRepo interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put inserts or replaces the value for key.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Session event actions.
const (
	ActionStart    = "start"
	ActionComplete = "complete"
)

// SessionEvent records a quiz session starting or completing.
type SessionEvent struct {
	ID            int64
	SessionID     string
	Action        string
	Mode          string
	Ranges        []string
	QuestionCount int
	Score         int
	GradedTotal   int
	Timestamp     time.Time
}

// SessionEventRepo provides append and query access to session events.
type SessionEventRepo interface {
	// Append records an event. A zero Timestamp is set to now.
	Append(ctx context.Context, ev SessionEvent) error

	// RecentCompleted returns completion events, newest first.
	// A limit of 0 returns all of them.
	RecentCompleted(ctx context.Context, limit int) ([]SessionEvent, error)
}
