// Package pdf renders single pages of PDF report exports to raster images.
package pdf

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// Rendering contract with the mail body: 200 DPI matches the upstream
// exporter's preview resolution; the PNG is embedded as cid:report.png.
const (
	DPI       = 200
	ImageName = "report.png"
)

// PageRangeError reports a page number outside [1, Pages].
type PageRangeError struct {
	Page  int
	Pages int
}

func (e *PageRangeError) Error() string {
	return fmt.Sprintf("page %d out of range: document has %d page(s)", e.Page, e.Pages)
}

// ExtractPage renders the 1-based page of the PDF at path to PNG bytes.
// It does not cache anything across calls.
func ExtractPage(path string, page int) ([]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	if page < 1 || page > doc.NumPage() {
		return nil, &PageRangeError{Page: page, Pages: doc.NumPage()}
	}

	img, err := doc.ImageDPI(page-1, DPI)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", page, err)
	}
	return buf.Bytes(), nil
}
