package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for default file locations
type Paths struct {
	ExecutableDir string
	DataDir       string
	DownloadsDir  string
	WorkDir       string
	ReportsDir    string
	CacheDir      string
	LogsDir       string

	// Well-known artifacts, overwritten on every run
	WorkbookFile string
	CSVFile      string
	SnapshotFile string
}

// GetPaths returns the application paths relative to the executable location
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths lays out the directory tree under baseDir:
//
//	base/
//	  ├── data/
//	  │   ├── downloads/   (browser download target)
//	  │   ├── work/        (extracted archive)
//	  │   ├── reports/     (workbook, csv, snapshot)
//	  │   └── cache/       (rendered pivot html)
//	  └── logs/
func NewPaths(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, "data")
	reportsDir := filepath.Join(dataDir, "reports")

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		DownloadsDir:  filepath.Join(dataDir, "downloads"),
		WorkDir:       filepath.Join(dataDir, "work"),
		ReportsDir:    reportsDir,
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(baseDir, "logs"),

		WorkbookFile: filepath.Join(reportsDir, DefaultWorkbookName),
		CSVFile:      filepath.Join(reportsDir, DefaultCSVName),
		SnapshotFile: filepath.Join(reportsDir, DefaultSnapshotName),
	}
}

// EnsureDirectories creates all required directories if they don't exist.
// It is idempotent; calling it repeatedly is harmless.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.DownloadsDir,
		p.WorkDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	return EnsureDirs(directories...)
}

// EnsureDirs creates each directory that does not exist yet
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetDownloadPath returns the path for a downloaded file
func (p *Paths) GetDownloadPath(filename string) string {
	return filepath.Join(p.DownloadsDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetCachePath returns the path for a cache file
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved directory tree
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("downloads", p.DownloadsDir),
			slog.String("work", p.WorkDir),
			slog.String("reports", p.ReportsDir),
			slog.String("cache", p.CacheDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("artifacts",
			slog.String("workbook", p.WorkbookFile),
			slog.String("csv", p.CSVFile),
			slog.String("snapshot", p.SnapshotFile),
		))
}
