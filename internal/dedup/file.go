package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultFilePath is where the file store keeps its state by default.
const DefaultFilePath = "notified_ads.json"

// fileFormatVersion is bumped if the on-disk layout ever changes.
const fileFormatVersion = 1

type fileState struct {
	Version int      `json:"version"`
	IDs     []string `json:"ids"`
}

// FileStore keeps the set as a JSON document on local disk. It assumes a
// single writer.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path (DefaultFilePath if empty).
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the set. A missing file is an empty set.
func (s *FileStore) Load(_ context.Context) (Set, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dedup file %s: %w", s.path, err)
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse dedup file %s: %w", s.path, err)
	}
	if state.Version != fileFormatVersion {
		return nil, fmt.Errorf("unsupported dedup file version %d in %s", state.Version, s.path)
	}
	return NewSet(state.IDs...), nil
}

// Save writes ids to a temporary file and renames it over the previous state.
func (s *FileStore) Save(_ context.Context, ids Set) error {
	data, err := json.MarshalIndent(fileState{Version: fileFormatVersion, IDs: ids.Sorted()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dedup state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write dedup state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace dedup file %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
