package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

const (
	pdfNoTextReason = "No text could be extracted from the PDF. It may be scanned or contain only images."
	pdfMIME         = "application/pdf"
)

// DocumentOCR reads text from scanned documents.
type DocumentOCR interface {
	ProcessBytes(ctx context.Context, data []byte, mimeType string) (string, error)
}

type PDF struct {
	log *logger.Logger
	ocr DocumentOCR
}

// NewPDF builds the PDF adapter. ocr is optional and is only consulted when
// the embedded text layer is empty.
func NewPDF(log *logger.Logger, ocr DocumentOCR) *PDF {
	return &PDF{log: log.With("service", "PDFExtractor"), ocr: ocr}
}

func (p *PDF) Kind() string         { return "pdf" }
func (p *PDF) Extensions() []string { return []string{"pdf"} }

func (p *PDF) Extract(ctx context.Context, data []byte) (Result, error) {
	text, err := pdfText(data, p.log)
	if err != nil {
		return Failed("Error extracting text from PDF: " + err.Error()), nil
	}
	if strings.TrimSpace(text) != "" {
		return Ok(text, "text_layer"), nil
	}
	if p.ocr == nil {
		return Failed(pdfNoTextReason), nil
	}

	ocrText, err := p.ocr.ProcessBytes(ctx, data, pdfMIME)
	if err != nil {
		p.log.Warn("PDF OCR fallback failed", "error", err)
		return Failed(pdfNoTextReason), nil
	}
	if strings.TrimSpace(ocrText) == "" {
		return Failed(pdfNoTextReason), nil
	}
	return Ok(ocrText, "document_ocr"), nil
}

// pdfText concatenates the plain text of every page, each followed by a blank
// line. Pages without text are skipped.
func pdfText(data []byte, log *logger.Logger) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, pageErr := page.GetPlainText(nil)
		if pageErr != nil || content == "" {
			log.Debug("No text extracted from page", "page", i, "error", pageErr)
			continue
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}
