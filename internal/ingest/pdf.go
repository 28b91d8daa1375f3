// internal/ingest/pdf.go
package ingest

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFReader extracts plain text page by page using the pure-Go pdf parser.
type PDFReader struct{}

// NewPDFReader returns a ready PDFExtractor.
func NewPDFReader() *PDFReader { return &PDFReader{} }

// Extract returns the text of every non-empty page, 1-based.
func (PDFReader) Extract(path string) ([]PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	var pages []PageText
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d of %s: %w", num, path, err)
		}
		if text == "" {
			continue
		}
		pages = append(pages, PageText{Page: num, Text: text})
	}
	return pages, nil
}
