package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"

	"hrreport/internal/config"
	apperrors "hrreport/internal/errors"
)

// Session is one browser instance driven by the pipeline
type Session interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, xpath string) error
	HTML(ctx context.Context) (string, error)
	Quit() error
}

// Factory opens a fresh Session that saves downloads into downloadDir
type Factory func(ctx context.Context, downloadDir string) (Session, error)

// AllocatorOptions returns the chromedp exec options for cfg
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	if cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", true))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	return opts
}

// ChromeSession is a Session backed by a local Chrome via chromedp
type ChromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
	logger      *slog.Logger
	quitOnce    sync.Once
}

// NewChromeFactory returns a Factory that launches Chrome with cfg
func NewChromeFactory(cfg config.BrowserConfig, logger *slog.Logger) Factory {
	return func(ctx context.Context, downloadDir string) (Session, error) {
		return NewChromeSession(ctx, cfg, downloadDir, logger)
	}
}

// NewChromeSession starts Chrome and allows downloads into downloadDir
func NewChromeSession(ctx context.Context, cfg config.BrowserConfig, downloadDir string, logger *slog.Logger) (*ChromeSession, error) {
	if logger == nil {
		logger = slog.Default()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(cfg)...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	s := &ChromeSession{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		cfg:         cfg,
		logger:      logger,
	}

	// The first Run allocates the browser; it must use the long-lived context.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Quit()
		return nil, apperrors.NewAutomationError("failed to start browser", err)
	}

	err := s.run(ctx, cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
		WithDownloadPath(downloadDir).
		WithEventsEnabled(true))
	if err != nil {
		s.Quit()
		return nil, apperrors.NewAutomationError("failed to allow downloads", err)
	}

	logger.InfoContext(ctx, "Browser session started",
		slog.Bool("headless", cfg.Headless),
		slog.String("download_dir", downloadDir))
	return s, nil
}

// run executes actions on the browser, bounded by the session timeout and ctx
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.cfg.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate opens url and waits for the page body plus the configured settle delay
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	start := time.Now()
	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.PageLoadDelay),
	)
	if err != nil {
		return apperrors.NewAutomationError(fmt.Sprintf("failed to open %s", url), err)
	}

	s.logger.InfoContext(ctx, "Page loaded",
		slog.String("url", url),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// clickScript clicks the first node matching an XPath from page JavaScript,
// which also works for anchors hidden behind overlays.
const clickScript = `(function(xp) {
	const el = document.evaluate(xp, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!el) return false;
	el.click();
	return true;
})(%s)`

// Click clicks the element at xpath
func (s *ChromeSession) Click(ctx context.Context, xpath string) error {
	var clicked bool
	err := s.run(ctx,
		chromedp.WaitReady(xpath, chromedp.BySearch),
		chromedp.Evaluate(fmt.Sprintf(clickScript, strconv.Quote(xpath)), &clicked),
	)
	if err != nil {
		return apperrors.NewAutomationError("failed to click download button", err).
			WithContext("xpath", xpath)
	}
	if !clicked {
		return apperrors.NewAutomationError("download button not found", nil).
			WithContext("xpath", xpath)
	}

	s.logger.InfoContext(ctx, "Download button clicked", slog.String("xpath", xpath))
	return nil
}

// HTML returns the current document markup
func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", apperrors.NewAutomationError("failed to read page HTML", err)
	}
	return html, nil
}

// Quit closes the browser. Safe to call more than once.
func (s *ChromeSession) Quit() error {
	s.quitOnce.Do(func() {
		s.cancel()
		s.allocCancel()
		s.logger.Debug("Browser session closed")
	})
	return nil
}
