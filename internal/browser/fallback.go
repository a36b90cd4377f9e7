package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "hrreport/internal/errors"
	"hrreport/internal/files"
)

// FindArchiveLink returns the absolute URL of the first element in html
// matching selector that carries an href.
func FindArchiveLink(html, pageURL, selector string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	var link string
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		link = base.ResolveReference(ref).String()
		return false
	})

	if link == "" {
		return "", apperrors.NewAutomationError("no archive link on page", nil).
			WithContext("selector", selector)
	}
	return link, nil
}

// LinkDownloader fetches an archive over HTTP into the download directory.
// The body is written to a .part file first and moved into place when
// complete, so the download watcher never sees a half-written archive.
type LinkDownloader struct {
	client    *http.Client
	manager   *files.Manager
	userAgent string
	logger    *slog.Logger
}

// NewLinkDownloader creates a downloader. A nil client uses http.DefaultClient.
func NewLinkDownloader(client *http.Client, manager *files.Manager, userAgent string, logger *slog.Logger) *LinkDownloader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkDownloader{client: client, manager: manager, userAgent: userAgent, logger: logger}
}

// Download saves link into destDir and returns the final path
func (d *LinkDownloader) Download(ctx context.Context, link, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.ErrorContext(ctx, "HTTP GET failed",
			slog.String("url", link),
			slog.String("error", err.Error()))
		return "", apperrors.NewAutomationError("archive download failed", err).WithContext("url", link)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewAutomationError(fmt.Sprintf("bad status %s", resp.Status), nil).
			WithContext("url", link)
	}

	name := archiveName(resp, link)
	final := filepath.Join(destDir, name)
	partial := final + ".part"

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	out, err := os.Create(partial)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", partial, err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partial)
		return "", apperrors.NewAutomationError("archive download interrupted", err).WithContext("url", link)
	}

	if err := d.manager.MoveFile(partial, final); err != nil {
		return "", fmt.Errorf("finalize download: %w", err)
	}

	d.logger.InfoContext(ctx, "Archive downloaded over HTTP",
		slog.String("url", link),
		slog.String("path", final),
		slog.Int64("size_bytes", written))
	return final, nil
}

// archiveName prefers the Content-Disposition filename, then the URL path.
// The result always ends in .zip so the download watcher picks it up.
func archiveName(resp *http.Response, link string) string {
	return withZipExt(rawArchiveName(resp, link))
}

func rawArchiveName(resp *http.Response, link string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := filepath.Base(params["filename"]); name != "." && name != "/" && name != "" {
				return name
			}
		}
	}
	if u, err := url.Parse(link); err == nil {
		if name := path.Base(u.Path); name != "." && name != "/" && name != "" {
			if unescaped, err := url.PathUnescape(name); err == nil {
				name = unescaped
			}
			return filepath.Base(name)
		}
	}
	return "download"
}

func withZipExt(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".zip") {
		return name
	}
	return name + ".zip"
}
