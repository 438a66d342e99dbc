package stock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// HistoryRequest selects the scrip and date range to download.
type HistoryRequest struct {
	Code string
	From time.Time
	To   time.Time
}

// Downloader fetches a history CSV export.
type Downloader interface {
	Download(ctx context.Context, req HistoryRequest) ([]byte, error)
}

// BSESelectors locate the form controls on the BSE price history page.
type BSESelectors struct {
	ScripCode string
	FromDate  string
	ToDate    string
	Submit    string
	Download  string
}

// DefaultBSESelectors matches the StockPrcHistori.aspx form.
var DefaultBSESelectors = BSESelectors{
	ScripCode: "#ContentPlaceHolder1_hdnCode",
	FromDate:  "#ContentPlaceHolder1_txtFromDate",
	ToDate:    "#ContentPlaceHolder1_txtToDate",
	Submit:    "#ContentPlaceHolder1_btnSubmit",
	Download:  "#ContentPlaceHolder1_btnDownload1",
}

// RodOptions configures a RodDownloader.
type RodOptions struct {
	PageURL     string
	BrowserBin  string
	DownloadDir string
	Timeout     time.Duration
	Selectors   BSESelectors
	Logger      *zap.Logger
}

// RodDownloader drives a headless Chromium through the BSE history form.
// Every call launches its own browser and closes it before returning.
type RodDownloader struct {
	opts RodOptions
}

// NewRodDownloader fills defaults for unset options.
func NewRodDownloader(opts RodOptions) *RodDownloader {
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = os.TempDir()
	}
	if opts.Selectors == (BSESelectors{}) {
		opts.Selectors = DefaultBSESelectors
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &RodDownloader{opts: opts}
}

func formatBSEDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// Download returns the CSV bytes of the requested range.
func (d *RodDownloader) Download(ctx context.Context, req HistoryRequest) ([]byte, error) {
	if d.opts.PageURL == "" {
		return nil, errors.New("history page url is not configured")
	}
	if req.Code == "" {
		return nil, errors.New("scrip code is required")
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	log := d.opts.Logger.With(zap.String("code", req.Code),
		zap.String("from", formatBSEDate(req.From)), zap.String("to", formatBSEDate(req.To)))

	l := launcher.New().Context(ctx).Headless(true)
	if d.opts.BrowserBin != "" {
		l = l.Bin(d.opts.BrowserBin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()
	log.Debug("browser launched")

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: d.opts.PageURL})
	if err != nil {
		return nil, fmt.Errorf("open history page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait history page: %w", err)
	}
	log.Debug("history page loaded")

	sel := d.opts.Selectors
	fields := []struct{ selector, value string }{
		{sel.ScripCode, req.Code},
		{sel.FromDate, formatBSEDate(req.From)},
		{sel.ToDate, formatBSEDate(req.To)},
	}
	for _, f := range fields {
		if _, err := page.Element(f.selector); err != nil {
			return nil, fmt.Errorf("find %s: %w", f.selector, err)
		}
		// The date inputs are read-only pickers, so values are set directly.
		if _, err := page.Eval(`(sel, value) => { document.querySelector(sel).value = value }`, f.selector, f.value); err != nil {
			return nil, fmt.Errorf("fill %s: %w", f.selector, err)
		}
	}

	if err := clickSelector(page, sel.Submit); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait results: %w", err)
	}
	log.Debug("history form submitted")

	if err := os.MkdirAll(d.opts.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	wait := browser.WaitDownload(d.opts.DownloadDir)
	if err := clickSelector(page, sel.Download); err != nil {
		return nil, err
	}
	info := wait()
	if info == nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("wait download: %w", err)
		}
		return nil, errors.New("download did not start")
	}

	file := filepath.Join(d.opts.DownloadDir, info.GUID)
	defer os.Remove(file)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read download: %w", err)
	}
	log.Debug("history csv downloaded", zap.Int("bytes", len(data)))
	return data, nil
}

func clickSelector(page *rod.Page, selector string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("find %s: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}
