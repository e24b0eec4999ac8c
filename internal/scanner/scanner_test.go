package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestScanDirectorySkipsSmallAndNonVideoFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "clip.mp4"), 20*1024*1024)
	writeFile(t, filepath.Join(dir, "tiny.mp4"), 1024)
	writeFile(t, filepath.Join(dir, "notes.txt"), 20*1024*1024)

	s := New(10)
	found, err := s.ScanDirectory(dir, true)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Contains(t, found[0], "clip.mp4")
}

func TestScanDirectorySkipsReservedSubdirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "frames"), 0o755))
	writeFile(t, filepath.Join(dir, "frames", "hidden.mp4"), 20*1024*1024)
	writeFile(t, filepath.Join(dir, "visible.mp4"), 20*1024*1024)

	s := New(10)
	found, err := s.ScanDirectory(dir, true)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Contains(t, found[0], "visible.mp4")
}

func TestIsVideoFile(t *testing.T) {
	require.True(t, IsVideoFile("a.MP4"))
	require.True(t, IsVideoFile("a.mkv"))
	require.False(t, IsVideoFile("a.txt"))
}

func TestIsGarbledFilenamePureASCII(t *testing.T) {
	require.False(t, IsGarbledFilename("vacation_clip_01.mp4"))
}

func TestIsGarbledFilenameCJKIsNotGarbled(t *testing.T) {
	require.False(t, IsGarbledFilename("办公室场景.mp4"))
}

func TestIsGarbledFilenameMojibakeIsGarbled(t *testing.T) {
	require.True(t, IsGarbledFilename("æ–‡ä»¶åå·²æŸåä¹±ç .mp4"))
}

func TestGetScanSummary(t *testing.T) {
	dir := t.TempDir()
	clean := filepath.Join(dir, "clean.mp4")
	garbled := filepath.Join(dir, "æ–‡ä»¶åå·²æŸåä¹±ç .mp4")
	writeFile(t, clean, 1024)
	writeFile(t, garbled, 1024)

	summary := GetScanSummary([]string{clean, garbled})
	require.Equal(t, 2, summary.Total)
	require.Equal(t, 1, summary.Garbled)
	require.Greater(t, summary.TotalSizeMB, 0.0)
}
