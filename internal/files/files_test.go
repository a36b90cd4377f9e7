package files

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrreport/internal/config"
	apperrors "hrreport/internal/errors"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestWaitForArchiveTimesOut(t *testing.T) {
	dir := t.TempDir()
	w := NewDownloadWatcher(dir, 10*time.Millisecond, 100*time.Millisecond, nil)

	start := time.Now()
	archive, err := w.WaitForArchive(context.Background(), start)

	assert.Nil(t, archive)
	assert.ErrorIs(t, err, apperrors.ErrDownloadTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWaitForArchiveFindsCompletedDownload(t *testing.T) {
	dir := t.TempDir()
	since := time.Now()
	path := filepath.Join(dir, "Employee Sample Data.zip")
	writeZip(t, path, map[string]string{"data.xlsx": "x"})

	w := NewDownloadWatcher(dir, 10*time.Millisecond, 2*time.Second, nil)
	archive, err := w.WaitForArchive(context.Background(), since)

	require.NoError(t, err)
	require.NotNil(t, archive)
	assert.Equal(t, path, archive.Path)
	assert.Equal(t, "Employee Sample Data.zip", archive.Name)
}

func TestWaitForArchiveIgnoresInProgressAndOldFiles(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "old.zip")
	writeZip(t, old, map[string]string{"a.xlsx": "a"})
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	since := time.Now()
	partial := filepath.Join(dir, "new.zip")
	writeZip(t, partial, map[string]string{"b.xlsx": "b"})
	require.NoError(t, os.WriteFile(partial+".crdownload", []byte("..."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.zip.part"), []byte("..."), 0644))

	w := NewDownloadWatcher(dir, 10*time.Millisecond, 150*time.Millisecond, nil)
	archive, err := w.WaitForArchive(context.Background(), since)

	assert.Nil(t, archive)
	assert.ErrorIs(t, err, apperrors.ErrDownloadTimeout)
}

func TestWaitForArchiveHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewDownloadWatcher(t.TempDir(), 10*time.Millisecond, time.Minute, nil)
	archive, err := w.WaitForArchive(ctx, time.Now())

	assert.Nil(t, archive)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsProvisional(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"data.zip", false},
		{"data.zip.crdownload", true},
		{"Unconfirmed 1234.crdownload", true},
		{"data.zip.part", true},
		{"DATA.ZIP.TMP", true},
		{"data.download", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsProvisional(tt.name))
		})
	}
}

func TestExtractAndFindWorkbook(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sample.zip")
	writeZip(t, src, map[string]string{
		"readme.txt":                      "hello",
		"Employee Sample Data/data.xlsx": "xlsx bytes",
	})

	dest := filepath.Join(dir, "work")
	names, err := Extract(src, dest)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"readme.txt", "Employee Sample Data/data.xlsx"}, names)

	content, err := os.ReadFile(filepath.Join(dest, "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	workbook, err := FindWorkbook(names, dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "Employee Sample Data", "data.xlsx"), workbook)
}

func TestExtractCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.zip")
	require.NoError(t, os.WriteFile(src, []byte("not a zip"), 0644))

	names, err := Extract(src, filepath.Join(dir, "out"))

	assert.Nil(t, names)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExtraction))
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.zip")
	writeZip(t, src, map[string]string{"../escape.txt": "x"})

	names, err := Extract(src, filepath.Join(dir, "out"))

	assert.Nil(t, names)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "escape.txt"))
}

func TestFindWorkbookMissing(t *testing.T) {
	_, err := FindWorkbook([]string{"readme.txt", "~$lock.xlsx", "data.csv"}, "/tmp")
	assert.ErrorIs(t, err, apperrors.ErrWorkbookNotFound)
}

func TestDiscoveryFindArchivesSortedOldestFirst(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"b.zip", "a.ZIP", "c.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		mt := time.Now().Add(time.Duration(-10+i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mt, mt))
	}

	found, err := NewDiscovery(dir).FindArchives(".")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "b.zip", found[0].Name)
	assert.Equal(t, "a.ZIP", found[1].Name)

	latest, ok := GetLatestFile(found)
	require.True(t, ok)
	assert.Equal(t, "a.ZIP", latest.Name)
}

func TestManagerMoveAndRemoveStale(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())
	m := NewManager(paths, nil)

	src := paths.GetDownloadPath("data.zip.part")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))

	require.NoError(t, m.MoveFile(src, "downloads/data.zip"))
	assert.False(t, m.FileExists(src))
	assert.True(t, m.FileExists("downloads/data.zip"))

	require.NoError(t, os.WriteFile(filepath.Join(paths.WorkDir, "old.xlsx"), []byte("x"), 0644))
	removed, err := m.RemoveStale("work/", "*.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = m.RemoveStale(filepath.Join(paths.WorkDir, "missing"), "*")
	require.NoError(t, err)
	assert.Zero(t, removed)
}
