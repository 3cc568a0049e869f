package document

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	// Raster decoders registered for image.DecodeConfig. The x/image
	// formats cover the scanner output seen in the invoice corpus.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/curalab/invoice-curator/internal/annotation"
)

// Prober reads native document dimensions without decoding full pixel
// data. Raster images are probed via their headers; PDFs via the first
// page's media box. Only the first PDF page is supported.
type Prober struct {
	validator *Validator
}

// NewProber creates a prober with the specified size limit.
func NewProber(maxFileSize int64) *Prober {
	return &Prober{validator: NewValidator(maxFileSize)}
}

// Probe returns the native dimensions of the document at path.
func (p *Prober) Probe(path string) (*Dimensions, error) {
	if err := p.validator.ValidateImageFile(path); err != nil {
		return nil, err
	}

	if strings.ToLower(filepath.Ext(path)) == ".pdf" {
		return p.probePDF(path)
	}
	return p.probeRaster(path)
}

// probeRaster reads the image header for its pixel dimensions.
func (p *Prober) probeRaster(path string) (*Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, annotation.NewValidationError(fmt.Sprintf("cannot open image: %s", path), err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, annotation.NewParseError(fmt.Sprintf("cannot decode image header: %s", path), err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, annotation.NewValidationError(
			fmt.Sprintf("image reports non-positive size %dx%d: %s", cfg.Width, cfg.Height, path), nil)
	}

	return &Dimensions{Width: cfg.Width, Height: cfg.Height, Pages: 1}, nil
}

// probePDF reads the first page's media box. The page count comes from a
// second, cheaper reader so an unreadable page tree is caught before the
// dimensions are trusted.
func (p *Prober) probePDF(path string) (*Dimensions, error) {
	pages, err := p.pdfPageCount(path)
	if err != nil {
		return nil, err
	}
	if pages == 0 {
		return nil, annotation.NewValidationError(fmt.Sprintf("PDF has no pages: %s", path), nil)
	}

	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, annotation.NewParseError(fmt.Sprintf("cannot read PDF: %s", path), err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, annotation.NewParseError(fmt.Sprintf("cannot resolve PDF page tree: %s", path), err)
	}

	dims, err := ctx.PageDims()
	if err != nil || len(dims) == 0 {
		return nil, annotation.NewParseError(fmt.Sprintf("cannot read PDF page dimensions: %s", path), err)
	}

	// Media box units are points; the review flow only needs a size that
	// is proportional to the rendered page, so points map 1:1 to pixels.
	first := dims[0]
	w := int(math.Round(first.Width))
	h := int(math.Round(first.Height))
	if w <= 0 || h <= 0 {
		return nil, annotation.NewValidationError(
			fmt.Sprintf("PDF reports non-positive page size %dx%d: %s", w, h, path), nil)
	}

	return &Dimensions{Width: w, Height: h, Pages: pages}, nil
}

// pdfPageCount opens the PDF with the lightweight reader and returns the
// page count.
func (p *Prober) pdfPageCount(path string) (int, error) {
	f, r, err := ledongthuc.Open(path)
	if err != nil {
		return 0, annotation.NewParseError(fmt.Sprintf("cannot open PDF: %s", path), err)
	}
	defer f.Close()

	return r.NumPage(), nil
}
