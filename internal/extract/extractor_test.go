package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) ExtractText(ctx context.Context, document []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

type recordingVault struct {
	names []string
	err   error
}

func (v *recordingVault) Put(ctx context.Context, name string, data []byte) error {
	v.names = append(v.names, name)
	return v.err
}

func TestExtract_PlainText(t *testing.T) {
	e := NewExtractor()
	content := strings.Repeat("The party of the first part shall deliver. ", 5)
	pages, err := e.Extract(context.Background(), "contract.txt", []byte(content))
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Source != "contract.txt" {
		t.Errorf("Source=%q", pages[0].Source)
	}
	if pages[0].PageNumber != 1 {
		t.Errorf("PageNumber=%d", pages[0].PageNumber)
	}
	if pages[0].Content != strings.TrimSpace(content) {
		t.Errorf("content not preserved")
	}
}

func TestExtract_EmptyPageDropped(t *testing.T) {
	e := NewExtractor()
	pages, err := e.Extract(context.Background(), "blank.txt", []byte("   \n\t  "))
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 0 {
		t.Errorf("expected no pages for whitespace-only document, got %d", len(pages))
	}
}

func TestExtract_OCRFallbackForShortText(t *testing.T) {
	ocrClient := &fakeOCR{text: "Recovered text from a scanned page with enough substance to keep."}
	e := NewExtractor(WithOCR(ocrClient), WithScanThreshold(100))

	pages, err := e.Extract(context.Background(), "scan.txt", []byte("short"))
	if err != nil {
		t.Fatal(err)
	}
	if ocrClient.calls != 1 {
		t.Fatalf("expected 1 OCR call, got %d", ocrClient.calls)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Content != ocrClient.text {
		t.Errorf("expected OCR text, got %q", pages[0].Content)
	}
}

func TestExtract_OCRNotInvokedAboveThreshold(t *testing.T) {
	ocrClient := &fakeOCR{text: "should not be used"}
	e := NewExtractor(WithOCR(ocrClient), WithScanThreshold(10))

	content := "This line is comfortably longer than ten characters."
	pages, err := e.Extract(context.Background(), "doc.txt", []byte(content))
	if err != nil {
		t.Fatal(err)
	}
	if ocrClient.calls != 0 {
		t.Errorf("OCR should not run for text above threshold, got %d calls", ocrClient.calls)
	}
	if pages[0].Content != content {
		t.Errorf("expected direct text, got %q", pages[0].Content)
	}
}

func TestExtract_OCRFailureKeepsDirectText(t *testing.T) {
	ocrClient := &fakeOCR{err: errors.New("throttled")}
	e := NewExtractor(WithOCR(ocrClient), WithScanThreshold(100))

	pages, err := e.Extract(context.Background(), "doc.txt", []byte("partial text"))
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Content != "partial text" {
		t.Errorf("expected direct text after OCR failure, got %q", pages[0].Content)
	}
}

func TestExtract_NoOCRKeepsShortText(t *testing.T) {
	e := NewExtractor(WithScanThreshold(100))
	pages, err := e.Extract(context.Background(), "doc.txt", []byte("short"))
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].Content != "short" {
		t.Errorf("expected short direct text without OCR, got %v", pages)
	}
}

func TestExtract_VaultReceivesOriginal(t *testing.T) {
	v := &recordingVault{}
	e := NewExtractor(WithVault(v))
	if _, err := e.Extract(context.Background(), "doc.txt", []byte("some document text")); err != nil {
		t.Fatal(err)
	}
	if len(v.names) != 1 || v.names[0] != "doc.txt" {
		t.Errorf("vault names=%v", v.names)
	}
}

func TestExtract_VaultFailureDoesNotAbort(t *testing.T) {
	v := &recordingVault{err: errors.New("bucket gone")}
	e := NewExtractor(WithVault(v))
	pages, err := e.Extract(context.Background(), "doc.txt", []byte("some document text"))
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Errorf("extraction should survive vault failure, got %d pages", len(pages))
	}
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract(context.Background(), "image.png", []byte{0x89, 0x50})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func buildDOCX(t *testing.T, bodyXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(bodyXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtract_DOCX(t *testing.T) {
	doc := buildDOCX(t, `<w:document><w:body><w:p w:rsidR="00A"><w:r><w:t>Clause one governs payment terms and schedules in detail.</w:t></w:r>`+
		`<w:r><w:t xml:space="preserve">Clause two governs termination and notice periods.</w:t></w:r></w:p></w:body></w:document>`)
	e := NewExtractor()
	pages, err := e.Extract(context.Background(), "contract.docx", doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if !strings.Contains(pages[0].Content, "Clause one") || !strings.Contains(pages[0].Content, "Clause two") {
		t.Errorf("missing text runs: %q", pages[0].Content)
	}
}

func TestExtract_DOCXNotAZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract(context.Background(), "broken.docx", []byte("not a zip")); err == nil {
		t.Error("expected error for malformed docx")
	}
}

func TestExtract_ExcelSheetsArePages(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetCellValue("Sheet1", "A1", strings.Repeat("Annual lease payment obligations summary. ", 4))
	_, err := f.NewSheet("Sheet2")
	if err != nil {
		t.Fatal(err)
	}
	_ = f.SetCellValue("Sheet2", "A1", strings.Repeat("Penalty clauses and late fee schedule. ", 4))
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	pages, err := e.Extract(context.Background(), "lease.xlsx", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages (one per sheet), got %d", len(pages))
	}
	if pages[0].PageNumber != 1 || pages[1].PageNumber != 2 {
		t.Errorf("page numbers %d,%d", pages[0].PageNumber, pages[1].PageNumber)
	}
	if !strings.Contains(pages[0].Content, "lease payment") {
		t.Errorf("sheet 1 content: %q", pages[0].Content)
	}
	if !strings.Contains(pages[1].Content, "Penalty clauses") {
		t.Errorf("sheet 2 content: %q", pages[1].Content)
	}
}

func TestExtract_MalformedPDFReturnsError(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract(context.Background(), "broken.pdf", []byte("%PDF-1.4 garbage")); err == nil {
		t.Error("expected error for unreadable PDF")
	}
}
