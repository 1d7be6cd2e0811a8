package convert

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/render"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

type Artifact struct {
	Data     []byte
	FileType models.FileType
}

// Converter produces the bytes of a rendered document in the requested
// format. Derived formats go through an external converter working inside
// the request's scratch directory, which is removed on return.
type Converter struct {
	ScratchBase string
	Timeout     time.Duration
	Markup      *render.MarkupEngine
	Sheets      XLSXSerializer
	Process     ProcessConverter
	Headless    HeadlessRenderer
}

func NewConverter(markup *render.MarkupEngine) *Converter {
	return &Converter{
		ScratchBase: config.ScratchDir(),
		Timeout:     config.ConversionTimeout(),
		Markup:      markup,
		Process:     NewSofficeConverter(config.SofficeBinary()),
		Headless:    NewChromeRenderer(config.ChromeBinary()),
	}
}

func conversionError(err error) error {
	return fmt.Errorf("%w: %w", utils.ErrorConversionFailed, err)
}

func (c *Converter) Convert(ctx context.Context, requestId string, doc *render.Document, format models.DocumentFormat) (*Artifact, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: unknown format %q", utils.ErrorInvalidRequest, format)
	}
	switch doc.Layout {
	case config.LayoutStructured:
		return c.convertStructured(ctx, requestId, doc, format)
	case config.LayoutMarkup:
		return c.convertMarkup(ctx, requestId, doc, format)
	default:
		return nil, conversionError(fmt.Errorf("unknown layout %q", doc.Layout))
	}
}

func (c *Converter) convertStructured(ctx context.Context, requestId string, doc *render.Document, format models.DocumentFormat) (*Artifact, error) {
	sheet, err := c.Sheets.Serialize(doc)
	if err != nil {
		return nil, conversionError(err)
	}
	if format == models.DocumentFormatSource {
		return &Artifact{Data: sheet, FileType: models.FileTypeXLSX}, nil
	}

	scratch, err := NewScratch(c.ScratchBase, requestId)
	if err != nil {
		return nil, conversionError(err)
	}
	defer scratch.Close()

	input := scratch.File("xlsx")
	if err := os.WriteFile(input, sheet, 0o600); err != nil {
		return nil, conversionError(err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	output, err := c.Process.ConvertFile(ctx, input, scratch.Dir, "pdf")
	if err != nil {
		return nil, conversionError(err)
	}
	pdf, err := os.ReadFile(output)
	if err != nil {
		return nil, conversionError(err)
	}
	return checked(pdf, models.FileTypePDF)
}

func (c *Converter) convertMarkup(ctx context.Context, requestId string, doc *render.Document, format models.DocumentFormat) (*Artifact, error) {
	if c.Markup == nil {
		return nil, conversionError(fmt.Errorf("no markup engine configured"))
	}
	html, err := c.Markup.RenderDocument(doc)
	if err != nil {
		return nil, conversionError(err)
	}
	if format == models.DocumentFormatSource {
		return &Artifact{Data: html, FileType: models.FileTypeHTML}, nil
	}

	scratch, err := NewScratch(c.ScratchBase, requestId)
	if err != nil {
		return nil, conversionError(err)
	}
	defer scratch.Close()

	input, err := filepath.Abs(scratch.File("html"))
	if err != nil {
		return nil, conversionError(err)
	}
	if err := os.WriteFile(input, html, 0o600); err != nil {
		return nil, conversionError(err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	pageURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(input)}).String()
	pdf, err := c.Headless.RenderToFixedLayout(ctx, pageURL, PageOptions{
		Margins:        doc.Policy.Margins,
		HeaderTemplate: doc.Policy.HeaderTemplate,
		FooterTemplate: doc.Policy.FooterTemplate,
		UserDataDir:    scratch.Path("chrome"),
	})
	if err != nil {
		return nil, conversionError(err)
	}
	return checked(pdf, models.FileTypePDF)
}

func (c *Converter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

func checked(data []byte, fileType models.FileType) (*Artifact, error) {
	magic := pdfMagic
	if fileType == models.FileTypeXLSX {
		magic = zipMagic
	}
	if !bytes.HasPrefix(data, magic) {
		return nil, conversionError(fmt.Errorf("output is not a %s document", fileType))
	}
	return &Artifact{Data: data, FileType: fileType}, nil
}
