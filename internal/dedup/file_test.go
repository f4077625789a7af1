package dedup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissingIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	set, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json"))

	require.NoError(t, s.Save(ctx, NewSet("A2", "A1")))

	set, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, set.Sorted())
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	require.NoError(t, s.Save(ctx, NewSet("A1", "A2")))
	require.NoError(t, s.Save(ctx, NewSet("A3")))

	set, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A3"}, set.Sorted())
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "state.json"))
	require.NoError(t, s.Save(context.Background(), NewSet("A1")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("\x80\x04\x95 pickle bytes"), 0644))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse dedup file")
}

func TestFileStore_WrongVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 9, "ids": ["A1"]}`), 0644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorContains(t, err, "unsupported dedup file version")
}

func TestFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultFilePath, NewFileStore("").Path())
}

func TestOpen_Kinds(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Kind: KindFile, Path: filepath.Join(t.TempDir(), "x.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, Options{Kind: "s3"})
	assert.ErrorContains(t, err, "unknown dedup store kind")

	_, err = Open(ctx, Options{Kind: KindRedis})
	assert.ErrorContains(t, err, "requires a Redis URL")

	_, err = Open(ctx, Options{Kind: KindPostgres})
	assert.ErrorContains(t, err, "requires a database URL")
}
