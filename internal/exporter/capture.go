package exporter

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"hrreport/internal/browser"
	"hrreport/internal/config"
	"hrreport/internal/dataprocessing"
	apperrors "hrreport/internal/errors"
)

// Capturer renders an image of the pivot aggregation
type Capturer interface {
	Capture(ctx context.Context, p *dataprocessing.Pivot) ([]byte, error)
}

// PivotElementID is the id of the table that gets screenshotted
const PivotElementID = "pivot"

var pivotTemplate = template.Must(template.New("pivot").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Calibri, Arial, sans-serif; font-size: 11pt; margin: 16px; background: #fff; }
table { border-collapse: collapse; }
th, td { border: 1px solid #9bc2e6; padding: 3px 10px; }
th { background: #ddebf7; text-align: left; }
td.num { text-align: right; }
tr.level0 td { font-weight: bold; }
tr.total td { font-weight: bold; background: #ddebf7; border-top: 2px solid #5b9bd5; }
.filters td { border: none; padding: 1px 10px 1px 0; }
caption { text-align: left; color: #595959; padding-bottom: 6px; }
</style>
</head>
<body>
<div id="{{.ID}}">
<table class="filters">
{{range .Filters}}<tr><td><b>{{.Name}}</b></td><td>{{.Selection}}</td></tr>
{{end}}</table>
<br>
<table>
<caption>{{.Caption}} &middot; {{.Generated}}</caption>
<tr><th>Row Labels</th><th>{{.ValueCaption}}</th></tr>
{{range .Rows}}<tr class="level{{.Level}}"><td style="padding-left: {{.Indent}}px">{{.Label}}</td><td class="num">{{.Average}}</td></tr>
{{end}}<tr class="total"><td>{{.Total.Label}}</td><td class="num">{{.Total.Average}}</td></tr>
</table>
</div>
</body>
</html>
`))

type pivotView struct {
	ID           string
	Caption      string
	Generated    string
	ValueCaption string
	Filters      []filterView
	Rows         []rowView
	Total        rowView
}

type filterView struct {
	Name      string
	Selection string
}

type rowView struct {
	Label   string
	Level   int
	Indent  int
	Average string
}

// RenderPivotHTML renders p as a standalone HTML page
func RenderPivotHTML(p *dataprocessing.Pivot, now time.Time) (string, error) {
	view := pivotView{
		ID:           PivotElementID,
		Caption:      p.Spec.Name,
		Generated:    reportTimestamp(now),
		ValueCaption: p.Spec.ValueCaption(),
		Total:        toRowView(p.Total),
	}
	for _, name := range p.Spec.Filters {
		selection := "(All)"
		if v, ok := p.Spec.Selections[name]; ok {
			selection = v
		}
		view.Filters = append(view.Filters, filterView{Name: name, Selection: selection})
	}
	for _, r := range p.Rows {
		view.Rows = append(view.Rows, toRowView(r))
	}

	var buf bytes.Buffer
	if err := pivotTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render pivot: %w", err)
	}
	return buf.String(), nil
}

func toRowView(r dataprocessing.PivotRow) rowView {
	return rowView{
		Label:   r.Label(),
		Level:   r.Level,
		Indent:  10 + 18*r.Level,
		Average: FormatThousands(r.Average),
	}
}

// ChromeCapturer screenshots the rendered pivot with a headless Chrome
type ChromeCapturer struct {
	cfg      config.BrowserConfig
	cacheDir string
	logger   *slog.Logger
}

// NewChromeCapturer creates a capturer that stages its HTML page in cacheDir
func NewChromeCapturer(cfg config.BrowserConfig, cacheDir string, logger *slog.Logger) *ChromeCapturer {
	if logger == nil {
		logger = slog.Default()
	}
	// The snapshot never needs a visible window
	cfg.Headless = true
	return &ChromeCapturer{cfg: cfg, cacheDir: cacheDir, logger: logger}
}

// Capture returns a PNG of the pivot table
func (c *ChromeCapturer) Capture(ctx context.Context, p *dataprocessing.Pivot) ([]byte, error) {
	html, err := RenderPivotHTML(p, time.Now())
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	page := filepath.Join(c.cacheDir, "pivot.html")
	if err := os.WriteFile(page, []byte(html), 0644); err != nil {
		return nil, fmt.Errorf("write pivot page: %w", err)
	}
	defer os.Remove(page)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, browser.AllocatorOptions(c.cfg)...)
	defer allocCancel()
	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, c.cfg.Timeout)
	defer timeoutCancel()

	pageURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(page)}).String()
	selector := "#" + PivotElementID

	var png []byte
	err = chromedp.Run(taskCtx,
		chromedp.EmulateViewport(1280, 900),
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Screenshot(selector, &png, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		return nil, apperrors.NewAutomationError("failed to capture pivot snapshot", err)
	}

	c.logger.InfoContext(ctx, "Pivot snapshot captured", slog.Int("bytes", len(png)))
	return png, nil
}

// SaveSnapshot captures p with c and writes the image to path
func SaveSnapshot(ctx context.Context, c Capturer, p *dataprocessing.Pivot, path string) error {
	png, err := c.Capture(ctx, p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}
