package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var now = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func TestPrune(t *testing.T) {
	series := Series{
		{Timestamp: now.Add(-31 * 24 * time.Hour), FollowersCount: 1},
		{Timestamp: now.Add(-Retention), FollowersCount: 2},
		{Timestamp: now.Add(-Retention + time.Second), FollowersCount: 3},
		{Timestamp: now.Add(-time.Hour), FollowersCount: 4},
	}
	original := append(Series(nil), series...)

	got := Prune(series, now)
	want := Series{series[2], series[3]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Prune() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(original, series); diff != "" {
		t.Errorf("Prune() modified its input (-want +got):\n%s", diff)
	}
}

func TestPrune_Idempotent(t *testing.T) {
	series := Series{
		{Timestamp: now.Add(-40 * 24 * time.Hour), FollowersCount: 1},
		{Timestamp: now.Add(-2 * time.Hour), FollowersCount: 2},
	}
	once := Prune(series, now)
	if diff := cmp.Diff(once, Prune(once, now)); diff != "" {
		t.Errorf("Prune() not idempotent (-once +twice):\n%s", diff)
	}
}

func TestPrune_Empty(t *testing.T) {
	got := Prune(nil, now)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil series, got %#v", got)
	}
}

func TestRecordAndHandles(t *testing.T) {
	doc := Document{}
	Record(doc, "jack", Sample{Timestamp: now, FollowersCount: 10})
	Record(doc, "jack", Sample{Timestamp: now.Add(time.Hour), FollowersCount: 11})
	Record(doc, "elonmusk", Sample{Timestamp: now, FollowersCount: 20})

	if len(doc["jack"]) != 2 || doc["jack"][1].FollowersCount != 11 {
		t.Errorf("unexpected jack series %+v", doc["jack"])
	}
	if diff := cmp.Diff([]string{"elonmusk", "jack"}, doc.Handles()); diff != "" {
		t.Errorf("Handles() mismatch (-want +got):\n%s", diff)
	}
}

type memBackend struct {
	doc     Document
	loadErr error
	saveErr error
	saved   Document
}

func (m *memBackend) Load(ctx context.Context) (Document, error) { return m.doc, m.loadErr }
func (m *memBackend) Save(ctx context.Context, doc Document) error {
	m.saved = doc
	return m.saveErr
}
func (m *memBackend) Close() error { return nil }

func TestStore_LoadDegrades(t *testing.T) {
	s := NewStore(&memBackend{loadErr: errors.New("corrupt")}, nil)
	doc := s.Load(context.Background())
	if doc == nil || len(doc) != 0 {
		t.Errorf("expected empty document, got %#v", doc)
	}

	s = NewStore(&memBackend{}, nil)
	if doc := s.Load(context.Background()); doc == nil {
		t.Errorf("expected non-nil document for empty backend")
	}
}

func TestStore_SavePrunes(t *testing.T) {
	b := &memBackend{}
	s := NewStore(b, nil)
	s.now = func() time.Time { return now }

	doc := Document{"jack": {
		{Timestamp: now.Add(-45 * 24 * time.Hour), FollowersCount: 1},
		{Timestamp: now, FollowersCount: 2},
	}}
	if err := s.Save(context.Background(), doc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	want := Document{"jack": {{Timestamp: now, FollowersCount: 2}}}
	if diff := cmp.Diff(want, b.saved); diff != "" {
		t.Errorf("saved document mismatch (-want +got):\n%s", diff)
	}
	if len(doc["jack"]) != 2 {
		t.Errorf("Save must not modify the caller's document")
	}
}

func TestStore_SaveError(t *testing.T) {
	boom := errors.New("disk full")
	s := NewStore(&memBackend{saveErr: boom}, nil)
	if err := s.Save(context.Background(), Document{}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
}

func TestStore_UnavailableBackend(t *testing.T) {
	openErr := errors.New("file is not a database")
	s := NewStore(Unavailable{Err: openErr}, nil)

	if doc := s.Load(context.Background()); doc == nil || len(doc) != 0 {
		t.Errorf("expected empty document, got %#v", doc)
	}
	doc := Document{"jack": {{Timestamp: time.Now(), FollowersCount: 1}}}
	if err := s.Save(context.Background(), doc); !errors.Is(err, openErr) {
		t.Errorf("expected the open error from Save, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	failed := errors.New("encode failed")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return failed
	})
	if !errors.Is(err, failed) {
		t.Fatalf("expected write error, got %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "old" {
		t.Errorf("failed write must leave the file untouched, got %q", data)
	}

	if err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	}); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "new" {
		t.Errorf("expected new content, got %q", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}
