package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hrreport/internal/config"
)

// Manager provides file management operations rooted at the configured paths
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{paths: paths, logger: logger}
}

// FileExists reports whether path resolves to an existing entry
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(m.resolvePath(path))
	return err == nil
}

// CopyFile copies src to dst, creating dst's directory. A partially
// written dst is removed on failure.
func (m *Manager) CopyFile(src, dst string) (err error) {
	srcPath, dstPath := m.resolvePath(src), m.resolvePath(dst)

	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dstPath), err)
	}
	out, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", dstPath, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dstPath)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", srcPath, err)
	}
	return out.Sync()
}

// MoveFile renames src to dst. When rename fails, across filesystems for
// instance, it copies and then deletes src.
func (m *Manager) MoveFile(src, dst string) error {
	srcPath, dstPath := m.resolvePath(src), m.resolvePath(dst)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dstPath), err)
	}

	if err := os.Rename(srcPath, dstPath); err != nil {
		m.logger.Debug("Rename failed, copying instead",
			slog.String("src", srcPath),
			slog.String("dst", dstPath),
			slog.String("error", err.Error()))
		if err := m.CopyFile(srcPath, dstPath); err != nil {
			return err
		}
		return os.Remove(srcPath)
	}
	return nil
}

// RemoveStale deletes files in dir matching pattern and returns how many went.
// A missing dir is not an error.
func (m *Manager) RemoveStale(dir, pattern string) (int, error) {
	fullPath := m.resolvePath(dir)

	matches, err := filepath.Glob(filepath.Join(fullPath, pattern))
	if err != nil {
		return 0, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	removed := 0
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if err := os.Remove(match); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", match, err)
		}
		removed++
	}

	if removed > 0 {
		m.logger.Info("Removed stale files",
			slog.String("dir", fullPath),
			slog.String("pattern", pattern),
			slog.Int("count", removed))
	}
	return removed, nil
}

// resolvePath maps "downloads/", "work/", "reports/", "cache/" and "logs/"
// prefixes onto the configured tree. Other relative paths land under the
// data dir.
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	roots := []struct {
		prefix string
		dir    string
	}{
		{"downloads/", m.paths.DownloadsDir},
		{"work/", m.paths.WorkDir},
		{"reports/", m.paths.ReportsDir},
		{"cache/", m.paths.CacheDir},
		{"logs/", m.paths.LogsDir},
	}
	for _, r := range roots {
		if rest, ok := strings.CutPrefix(path, r.prefix); ok {
			return filepath.Join(r.dir, rest)
		}
	}
	return filepath.Join(m.paths.DataDir, path)
}
