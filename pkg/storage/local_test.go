package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_ReadWrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "nested", "dir"))
	require.NoError(t, err)

	_, err = s.Read(ctx, "tasks.yaml")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(ctx, "tasks.yaml", []byte("first")))
	require.NoError(t, s.Write(ctx, "tasks.yaml", []byte("second")))

	data, err := s.Read(ctx, "tasks.yaml")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	_, err = os.Stat(s.Path("tasks.yaml") + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestLocalStorage_PathStaysUnderBaseDir(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(s.BaseDir(), "escape.yaml"), s.Path("../../escape.yaml"))
}

func TestLocalStorage_WriteFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	// A directory where the document should be makes the rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "tasks.yaml"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.yaml", "keep"), nil, 0o644))

	err = s.Write(ctx, "tasks.yaml", []byte("data"))
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "tasks.yaml.tmp"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalStorage_WriteThroughSymlink(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "synced-tasks.yaml")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "tasks.yaml")))

	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "tasks.yaml", []byte("new")))

	info, err := os.Lstat(s.Path("tasks.yaml"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "link should survive the write")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	_, err := s.Read(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(ctx, "a", []byte("x")))
	data, err := s.Read(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.Equal(t, 1, s.Writes)
	assert.Equal(t, []string{"a"}, s.Keys())
}
