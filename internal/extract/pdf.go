package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns one entry per PDF page, in document order. A page that
// fails to decode yields an empty entry so the caller can route it through the
// OCR fallback instead of losing the whole document. The pdf library panics on
// some malformed cross-reference tables, so the reader is opened under recover.
func extractPDF(content []byte) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts, err = nil, fmt.Errorf("open PDF: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	texts = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		texts = append(texts, pdfPageText(r, i))
	}
	return texts, nil
}

// pdfPageText decodes a single page, treating any failure as empty text.
func pdfPageText(r *pdf.Reader, num int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
		}
	}()
	page := r.Page(num)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
