package jsonbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/FranksOps/followtrack/internal/storage"
)

// ensure jsonBackend implements storage.Backend
var _ storage.Backend = (*jsonBackend)(nil)

// timestampLayout is ISO-8601 local time without a zone, as existing history
// files were written. Parsing also accepts RFC 3339.
const timestampLayout = "2006-01-02T15:04:05.999999"

type record struct {
	Timestamp      string `json:"timestamp"`
	FollowersCount int64  `json:"followers_count"`
}

type jsonBackend struct {
	path string
	loc  *time.Location
}

// New creates a JSON-file storage.Backend. The file is created on first save.
func New(filePath string) (storage.Backend, error) {
	if filePath == "" {
		return nil, errors.New("jsonbackend: empty file path")
	}
	return &jsonBackend{path: filePath, loc: time.Local}, nil
}

func (b *jsonBackend) Load(ctx context.Context) (storage.Document, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return storage.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var raw map[string][]record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	doc := make(storage.Document, len(raw))
	for handle, records := range raw {
		series := make(storage.Series, 0, len(records))
		for _, r := range records {
			ts, err := b.parseTime(r.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("decode history for %s: %w", handle, err)
			}
			series = append(series, storage.Sample{Timestamp: ts, FollowersCount: r.FollowersCount})
		}
		doc[handle] = series
	}
	return doc, nil
}

func (b *jsonBackend) Save(ctx context.Context, doc storage.Document) error {
	raw := make(map[string][]record, len(doc))
	for handle, series := range doc {
		records := make([]record, 0, len(series))
		for _, s := range series {
			records = append(records, record{
				Timestamp:      s.Timestamp.In(b.loc).Format(timestampLayout),
				FollowersCount: s.FollowersCount,
			})
		}
		raw[handle] = records
	}

	err := storage.WriteFileAtomic(b.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(raw)
	})
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func (b *jsonBackend) Close() error {
	return nil
}

func (b *jsonBackend) parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	// The layout without fraction still accepts one when parsing.
	ts, err := time.ParseInLocation("2006-01-02T15:04:05", s, b.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return ts, nil
}
