package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is one saved scan in the history
type Record struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	WordCount int       `json:"wordCount"`
}

// HistoryStore persists saved scans
type HistoryStore interface {
	// Append adds a record at the end of the history
	Append(ctx context.Context, rec Record) error
	// List returns all records in save order
	List(ctx context.Context) ([]Record, error)
	// Get returns one record or a NOT_FOUND error
	Get(ctx context.Context, id string) (*Record, error)
	// Delete removes one record or returns a NOT_FOUND error
	Delete(ctx context.Context, id string) error
	// Clear removes every record
	Clear(ctx context.Context) error
	Close() error
}

// NewRecord builds a history record stamped at now (UTC, millisecond precision)
func NewRecord(title, text string, now time.Time) Record {
	return Record{
		ID:        uuid.NewString(),
		Title:     title,
		Text:      text,
		CreatedAt: now.UTC().Truncate(time.Millisecond),
		WordCount: WordCount(text),
	}
}

// WordCount counts whitespace-separated tokens; blank text has zero words
func WordCount(text string) int {
	return len(strings.Fields(text))
}
