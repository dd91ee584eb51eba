package jsonbackend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/followtrack/internal/storage"
	"github.com/google/go-cmp/cmp"
)

func newBackend(t *testing.T, path string) *jsonBackend {
	t.Helper()
	b, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create JSON backend: %v", err)
	}
	jb := b.(*jsonBackend)
	jb.loc = time.UTC
	return jb
}

func TestJSONBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "follower_data.json")
	b := newBackend(t, path)
	ctx := context.Background()

	doc := storage.Document{
		"elonmusk": {
			{Timestamp: time.Date(2026, 10, 17, 9, 0, 0, 123456000, time.UTC), FollowersCount: 199_000_000},
			{Timestamp: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), FollowersCount: 200_000_000},
		},
		"jack": {},
	}

	if err := b.Save(ctx, doc); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"timestamp": "2026-10-17T09:00:00.123456"`) {
		t.Errorf("expected naive ISO timestamp in file, got:\n%s", data)
	}
	if !strings.Contains(string(data), `"followers_count": 200000000`) {
		t.Errorf("expected followers_count field in file, got:\n%s", data)
	}

	got, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONBackend_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "follower_data.json")
	existing := `{
  "elonmusk": [
    {"timestamp": "2026-10-17T09:00:05.250000", "followers_count": 150000},
    {"timestamp": "2026-10-18T09:00:00", "followers_count": 160000},
    {"timestamp": "2026-10-18T10:00:00Z", "followers_count": 160500}
  ]
}`
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := newBackend(t, path).Load(context.Background())
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	want := storage.Document{"elonmusk": {
		{Timestamp: time.Date(2026, 10, 17, 9, 0, 5, 250000000, time.UTC), FollowersCount: 150_000},
		{Timestamp: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), FollowersCount: 160_000},
		{Timestamp: time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC), FollowersCount: 160_500},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONBackend_MissingFile(t *testing.T) {
	b := newBackend(t, filepath.Join(t.TempDir(), "absent.json"))
	doc, err := b.Load(context.Background())
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if len(doc) != 0 {
		t.Errorf("expected empty document, got %v", doc)
	}
}

func TestJSONBackend_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":      `{"elonmusk": [`,
		"bad timestamp": `{"elonmusk": [{"timestamp": "yesterday", "followers_count": 1}]}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "follower_data.json")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := newBackend(t, path).Load(context.Background()); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestJSONBackend_StoreDegradesOnCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "follower_data.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := storage.NewStore(newBackend(t, path), nil)
	if doc := store.Load(context.Background()); len(doc) != 0 {
		t.Errorf("expected empty document, got %v", doc)
	}
}

func TestNew_EmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty path")
	}
}
