package export

import (
	"context"
	"fmt"
	"time"

	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/templates"
	"resumecraft/internal/types"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 in inches
const (
	paperWidth  = 8.27
	paperHeight = 11.69
)

const defaultPDFTimeout = 30 * time.Second

// PDFRenderer prints rendered resume HTML to PDF with headless Chrome.
type PDFRenderer struct {
	chromePath string
	timeout    time.Duration
	logger     *resumecraftErrors.Logger
}

// NewPDFRenderer creates a renderer. An empty chromePath lets chromedp find
// the browser on PATH.
func NewPDFRenderer(chromePath string, timeout time.Duration, logger *resumecraftErrors.Logger) *PDFRenderer {
	if timeout <= 0 {
		timeout = defaultPDFTimeout
	}
	if logger == nil {
		logger = resumecraftErrors.NewNopLogger()
	}
	return &PDFRenderer{chromePath: chromePath, timeout: timeout, logger: logger}
}

// RenderDocument renders doc with variant and prints it.
func (r *PDFRenderer) RenderDocument(ctx context.Context, variant templates.Variant, doc *types.TailoredResumeData, profilePicture string) ([]byte, error) {
	html, err := templates.RenderDocument(variant, doc, profilePicture)
	if err != nil {
		return nil, err
	}
	return r.Print(ctx, html)
}

// Print loads html into a blank page and prints it to A4 with backgrounds.
func (r *PDFRenderer) Print(ctx context.Context, html string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, resumecraftErrors.NewIOError(resumecraftErrors.ErrCodeExportFailed,
			fmt.Sprintf("PDF export failed (is Chrome installed? set export.chromePath): %v", err), err)
	}

	r.logger.Debug("Printed PDF", "bytes", len(pdf), "duration", time.Since(start))
	return pdf, nil
}
