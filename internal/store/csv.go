package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"lemontycoon/internal/game"
)

// CSVStore keeps the snapshot as a two-row CSV file: a header of keys and a
// row of values.
type CSVStore struct {
	mu   sync.Mutex
	path string
	cat  *game.Catalog
}

func NewCSVStore(path string, cat *game.Catalog) (*CSVStore, error) {
	if path == "" {
		return nil, errors.New("csv store needs a path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	return &CSVStore{path: path, cat: cat}, nil
}

func (s *CSVStore) Path() string { return s.path }

func (s *CSVStore) Load(_ context.Context) (*game.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	if len(rows) < 2 {
		return nil, false, nil
	}
	header, row := rows[0], rows[1]
	if len(header) != len(row) {
		return nil, false, fmt.Errorf("snapshot %s has %d keys but %d values", s.path, len(header), len(row))
	}
	values := make(map[string]string, len(header))
	for i, key := range header {
		values[key] = row[i]
	}
	return DecodeRecord(values, s.cat), true, nil
}

// Save writes to a temp file in the same directory and renames it over the
// snapshot so a crash never leaves a half-written file.
func (s *CSVStore) Save(_ context.Context, st *game.State) error {
	fields := EncodeRecord(st, s.cat)
	header := make([]string, len(fields))
	row := make([]string, len(fields))
	for i, f := range fields {
		header[i], row[i] = f.Key, f.Value
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll([][]string{header, row}); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (s *CSVStore) Close() error { return nil }
