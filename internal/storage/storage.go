package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Retention is how long samples are kept.
const Retention = 30 * 24 * time.Hour

// Sample is one follower count observation.
type Sample struct {
	Timestamp      time.Time `json:"timestamp"`
	FollowersCount int64     `json:"followers_count"`
}

// Series is a handle's samples in the order they were recorded.
type Series []Sample

// Document is the whole persisted history, keyed by handle.
type Document map[string]Series

// Handles returns the document's handles in sorted order.
func (d Document) Handles() []string {
	handles := make([]string, 0, len(d))
	for h := range d {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	return handles
}

// Backend persists the history document. Save always writes the complete
// document; a backend never appends.
type Backend interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
	Close() error
}

// Unavailable stands in for a backend that could not be opened. Load and
// Save return Err, so a Store over it starts empty and only loses durability.
type Unavailable struct {
	Err error
}

func (u Unavailable) Load(ctx context.Context) (Document, error) {
	return nil, u.Err
}

func (u Unavailable) Save(ctx context.Context, doc Document) error {
	return u.Err
}

func (u Unavailable) Close() error {
	return nil
}

// Prune returns the samples recorded after now-Retention, in their original
// order. A sample exactly at the cutoff is dropped. s is not modified.
func Prune(s Series, now time.Time) Series {
	cutoff := now.Add(-Retention)
	out := make(Series, 0, len(s))
	for _, sample := range s {
		if sample.Timestamp.After(cutoff) {
			out = append(out, sample)
		}
	}
	return out
}

// Record appends sample to handle's series.
func Record(doc Document, handle string, sample Sample) {
	doc[handle] = append(doc[handle], sample)
}

// Store wraps a Backend with the degrade-don't-fail policy of a run: an
// unreadable history starts empty and a failed save only costs durability.
type Store struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger, now: time.Now}
}

// Load returns the persisted document, or an empty one if it cannot be read.
func (s *Store) Load(ctx context.Context) Document {
	doc, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Warn("history unreadable, starting empty", "err", err)
		return Document{}
	}
	if doc == nil {
		return Document{}
	}
	return doc
}

// Save prunes every series and writes the result. Errors are logged and returned.
func (s *Store) Save(ctx context.Context, doc Document) error {
	now := s.now()
	pruned := make(Document, len(doc))
	for handle, series := range doc {
		pruned[handle] = Prune(series, now)
	}

	if err := s.backend.Save(ctx, pruned); err != nil {
		s.logger.Error("failed to save history", "err", err)
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}
