package convert

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
	mmPerInch      = 25.4
)

type PageOptions struct {
	Margins        config.PageMargins
	HeaderTemplate string
	FooterTemplate string
	// UserDataDir is the browser profile directory for this render.
	UserDataDir string
}

// HeadlessRenderer prints a page to a fixed-layout document.
type HeadlessRenderer interface {
	RenderToFixedLayout(ctx context.Context, pageURL string, opts PageOptions) ([]byte, error)
}

// ChromeRenderer drives a headless Chrome through the DevTools protocol.
// A browser process is started per call.
type ChromeRenderer struct {
	ExecPath string
}

func NewChromeRenderer(execPath string) *ChromeRenderer {
	return &ChromeRenderer{ExecPath: execPath}
}

func mmToInches(mm float64) float64 {
	return mm / mmPerInch
}

func (r *ChromeRenderer) RenderToFixedLayout(ctx context.Context, pageURL string, opts PageOptions) ([]byte, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("allow-file-access-from-files", true))
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if r.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			params := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithMarginTop(mmToInches(opts.Margins.Top)).
				WithMarginRight(mmToInches(opts.Margins.Right)).
				WithMarginBottom(mmToInches(opts.Margins.Bottom)).
				WithMarginLeft(mmToInches(opts.Margins.Left))
			if opts.HeaderTemplate != "" || opts.FooterTemplate != "" {
				// chrome prints its own date/title header when a template is left empty
				params = params.
					WithDisplayHeaderFooter(true).
					WithHeaderTemplate(orBlank(opts.HeaderTemplate)).
					WithFooterTemplate(orBlank(opts.FooterTemplate))
			}
			buf, _, err := params.Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("headless print: %w", err)
	}
	return pdf, nil
}

func orBlank(tmpl string) string {
	if tmpl == "" {
		return "<span></span>"
	}
	return tmpl
}
