// Package extract converts uploaded résumé documents into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"resume-ingest/internal/shared/telemetry"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrExtractionFailed is wrapped by every extraction error.
	ErrExtractionFailed = errors.New("text extraction failed")
	// ErrUnsupportedFormat marks bytes that are neither PDF nor DOCX.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Result is the outcome of a successful extraction.
type Result struct {
	Text     string
	MimeType string
	// Pages is the PDF page count, zero for DOCX or when preflight failed.
	Pages int
}

// Extractor turns document bytes into linearized text.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// ExtractText returns the full text of data. hintMime is the MIME type
// recorded at upload and is used only when sniffing is inconclusive.
// Empty text is not an error.
func (e *Extractor) ExtractText(ctx context.Context, data []byte, hintMime string) (string, error) {
	res, err := e.Extract(ctx, data, hintMime)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Extract is ExtractText with format and page metadata.
func (e *Extractor) Extract(ctx context.Context, data []byte, hintMime string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: empty document", ErrExtractionFailed)
	}

	kind := DetectMime(data, hintMime)
	switch kind {
	case MimePDF:
		pages := preflightPDF(data)
		text, err := extractPDF(data)
		if err != nil {
			return Result{}, fmt.Errorf("%w: pdf: %w", ErrExtractionFailed, err)
		}
		return Result{Text: text, MimeType: kind, Pages: pages}, nil
	case MimeDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return Result{}, fmt.Errorf("%w: docx: %w", ErrExtractionFailed, err)
		}
		return Result{Text: text, MimeType: kind}, nil
	default:
		return Result{}, fmt.Errorf("%w: %w: %s", ErrExtractionFailed, ErrUnsupportedFormat, kind)
	}
}

// DetectMime sniffs data and falls back to hint for generic containers.
func DetectMime(data []byte, hint string) string {
	detected := mimetype.Detect(data)
	switch {
	case detected.Is(MimePDF):
		return MimePDF
	case detected.Is(MimeDOCX):
		return MimeDOCX
	}
	if detected.Is("application/zip") {
		clean := strings.ToLower(strings.TrimSpace(strings.Split(hint, ";")[0]))
		if clean == MimeDOCX || zipHasEntry(data, "word/document.xml") {
			return MimeDOCX
		}
	}
	return detected.String()
}

func zipHasEntry(data []byte, entry string) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == entry {
			return true
		}
	}
	return false
}

// preflightPDF reports the page count, or zero when pdfcpu rejects the
// structure. ledongthuc/pdf is more lenient so this is advisory only.
func preflightPDF(data []byte) int {
	count, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		telemetry.Warn("extract.pdf_preflight_failed", map[string]any{"error": err.Error()})
		return 0
	}
	return count
}

func extractPDF(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()
	return stripDocxXML(doc.Editable().GetContent())
}

func stripDocxXML(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				buf.WriteString("\t")
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
