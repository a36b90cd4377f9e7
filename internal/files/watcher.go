package files

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	apperrors "hrreport/internal/errors"
)

// provisionalSuffixes mark files a browser is still writing
var provisionalSuffixes = []string{".crdownload", ".part", ".tmp", ".download"}

// Archive is a completed download found by the watcher
type Archive struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// DownloadWatcher polls a directory for a finished archive download
type DownloadWatcher struct {
	dir       string
	interval  time.Duration
	timeout   time.Duration
	discovery *Discovery
	logger    *slog.Logger
}

// NewDownloadWatcher creates a watcher over dir
func NewDownloadWatcher(dir string, interval, timeout time.Duration, logger *slog.Logger) *DownloadWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadWatcher{
		dir:       dir,
		interval:  interval,
		timeout:   timeout,
		discovery: NewDiscovery(""),
		logger:    logger,
	}
}

// WaitForArchive blocks until a .zip modified at or after since has stopped
// growing, and returns the newest such archive. It returns
// ErrDownloadTimeout with a nil archive when none completes in time.
func (w *DownloadWatcher) WaitForArchive(ctx context.Context, since time.Time) (*Archive, error) {
	cutoff := since.Truncate(time.Second)
	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "Waiting for archive download",
		slog.String("dir", w.dir),
		slog.Duration("timeout", w.timeout),
		slog.Duration("interval", w.interval))

	lastSizes := make(map[string]int64)
	for {
		if archive := w.poll(ctx, cutoff, lastSizes); archive != nil {
			w.logger.InfoContext(ctx, "Archive download complete",
				slog.String("archive", archive.Name),
				slog.Int64("size_bytes", archive.Size))
			return archive, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			w.logger.WarnContext(ctx, "No archive found before timeout",
				slog.String("dir", w.dir),
				slog.Duration("timeout", w.timeout))
			return nil, apperrors.ErrDownloadTimeout
		case <-ticker.C:
		}
	}
}

// poll records candidate sizes and returns the newest candidate whose size
// matched the previous poll.
func (w *DownloadWatcher) poll(ctx context.Context, cutoff time.Time, lastSizes map[string]int64) *Archive {
	found, err := w.discovery.FindArchives(w.dir)
	if err != nil {
		w.logger.DebugContext(ctx, "Download directory not readable yet",
			slog.String("dir", w.dir),
			slog.String("error", err.Error()))
		return nil
	}

	var complete []FileInfo
	for _, f := range FilterModifiedSince(found, cutoff) {
		if IsProvisional(f.Name) || hasProvisionalSibling(f.Path) {
			delete(lastSizes, f.Path)
			continue
		}
		prev, seen := lastSizes[f.Path]
		lastSizes[f.Path] = f.Size
		if seen && prev == f.Size && f.Size > 0 {
			complete = append(complete, f)
		}
	}

	latest, ok := GetLatestFile(complete)
	if !ok {
		return nil
	}
	return &Archive{Path: latest.Path, Name: latest.Name, Size: latest.Size, ModTime: latest.ModTime}
}

// IsProvisional reports whether name carries an in-progress download marker
func IsProvisional(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range provisionalSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func hasProvisionalSibling(path string) bool {
	for _, suffix := range provisionalSuffixes {
		if _, err := os.Stat(path + suffix); err == nil {
			return true
		}
	}
	return false
}
