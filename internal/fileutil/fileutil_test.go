package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	require.True(t, FileExists(file))
	require.False(t, FileExists(filepath.Join(dir, "missing")))
}

func TestIsDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	require.True(t, IsDir(dir))
	require.False(t, IsDir(file))
	require.False(t, IsDir(filepath.Join(dir, "missing")))
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	require.Equal(t, "512 B", FormatSize(512))
	require.Equal(t, "1.0 KB", FormatSize(1024))
	require.Equal(t, "1.5 MB", FormatSize(1536*1024))
	require.Equal(t, "2.0 GB", FormatSize(2*1024*1024*1024))
}

func TestDirSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), make([]byte, 100), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 50), 0o644))

	require.Equal(t, int64(150), DirSize(dir))
	require.Equal(t, int64(0), DirSize(filepath.Join(dir, "missing")))
}
