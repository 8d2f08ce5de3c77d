package services

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// InspectPDF opens an uploaded PDF and returns its page count. Files the
// parser cannot open, or that have no pages, are rejected.
func InspectPDF(r io.ReaderAt, size int64) (int, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return 0, fmt.Errorf("unreadable pdf: %w", err)
	}

	pages := reader.NumPage()
	if pages == 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return pages, nil
}
