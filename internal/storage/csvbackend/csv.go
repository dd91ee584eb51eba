package csvbackend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/FranksOps/followtrack/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

// headers defines the CSV column order
var headers = []string{
	"handle",
	"timestamp",
	"followers_count",
}

type csvBackend struct {
	path string
}

// New creates a CSV-file storage.Backend. The file is created on first save.
func New(filePath string) (storage.Backend, error) {
	if filePath == "" {
		return nil, errors.New("csvbackend: empty file path")
	}
	return &csvBackend{path: filePath}, nil
}

func (b *csvBackend) Load(ctx context.Context) (storage.Document, error) {
	f, err := os.Open(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return storage.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(headers)

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return storage.Document{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	doc := storage.Document{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, record[1])
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", record[1], err)
		}
		n, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid followers_count %q: %w", record[2], err)
		}

		storage.Record(doc, record[0], storage.Sample{Timestamp: ts, FollowersCount: n})
	}
	return doc, nil
}

func (b *csvBackend) Save(ctx context.Context, doc storage.Document) error {
	err := storage.WriteFileAtomic(b.path, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := w.Write(headers); err != nil {
			return err
		}
		for _, handle := range doc.Handles() {
			for _, s := range doc[handle] {
				record := []string{
					handle,
					s.Timestamp.Format(time.RFC3339Nano),
					strconv.FormatInt(s.FollowersCount, 10),
				}
				if err := w.Write(record); err != nil {
					return err
				}
			}
		}
		w.Flush()
		return w.Error()
	})
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func (b *csvBackend) Close() error {
	return nil
}
