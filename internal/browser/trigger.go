package browser

import (
	"context"
	"log/slog"

	"hrreport/internal/config"
)

// Trigger starts the archive download on an open session. It clicks the
// configured button; when that fails it looks for an archive link in the
// page markup and fetches it over HTTP instead.
type Trigger struct {
	source     config.SourceConfig
	downloader *LinkDownloader
	logger     *slog.Logger
}

// NewTrigger creates a Trigger. downloader may be nil to disable the fallback.
func NewTrigger(source config.SourceConfig, downloader *LinkDownloader, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{source: source, downloader: downloader, logger: logger}
}

// Start navigates to the source page and triggers the download into downloadDir
func (t *Trigger) Start(ctx context.Context, s Session, downloadDir string) error {
	if err := s.Navigate(ctx, t.source.PageURL); err != nil {
		return err
	}

	clickErr := t.click(ctx, s)
	if clickErr == nil {
		return nil
	}
	if t.downloader == nil || t.source.LinkSelector == "" || ctx.Err() != nil {
		return clickErr
	}

	t.logger.WarnContext(ctx, "Button click failed, falling back to page link",
		slog.String("error", clickErr.Error()),
		slog.String("selector", t.source.LinkSelector))

	html, err := s.HTML(ctx)
	if err != nil {
		return err
	}
	link, err := FindArchiveLink(html, t.source.PageURL, t.source.LinkSelector)
	if err != nil {
		return err
	}
	_, err = t.downloader.Download(ctx, link, downloadDir)
	return err
}

// click waits at most ClickTimeout for the button so a missing node leaves
// time for the fallback.
func (t *Trigger) click(ctx context.Context, s Session) error {
	if t.source.ClickTimeout <= 0 {
		return s.Click(ctx, t.source.ButtonXPath)
	}
	clickCtx, cancel := context.WithTimeout(ctx, t.source.ClickTimeout)
	defer cancel()
	return s.Click(clickCtx, t.source.ButtonXPath)
}
