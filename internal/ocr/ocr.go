// Package ocr provides optical character recognition for scanned documents.
package ocr

import "context"

// Client extracts text from scanned document bytes. Implementations return
// concatenated line-level text. OCR is optional: a nil Client degrades
// extraction quality but never fails it.
type Client interface {
	ExtractText(ctx context.Context, document []byte) (string, error)
}
