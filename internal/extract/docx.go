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
)

const docxNoTextReason = "No text could be extracted from the document."

// MaxDOCXDocumentBytes caps the decompressed size of word/document.xml.
const MaxDOCXDocumentBytes = 64 << 20

var errDOCXTooLarge = fmt.Errorf("document.xml exceeds %d MiB", MaxDOCXDocumentBytes>>20)

// DOCX reads body paragraphs followed by tables, one row per line with cells
// joined by " | ".
type DOCX struct{}

func NewDOCX() *DOCX { return &DOCX{} }

func (d *DOCX) Kind() string         { return "docx" }
func (d *DOCX) Extensions() []string { return []string{"docx", "doc"} }

func (d *DOCX) Extract(ctx context.Context, data []byte) (Result, error) {
	text, err := docxText(data)
	if err != nil {
		return Failed("Error extracting text from DOCX: " + err.Error()), nil
	}
	if strings.TrimSpace(text) == "" {
		return Failed(docxNoTextReason), nil
	}
	return Ok(text, "docx_xml"), nil
}

type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
		Tables     []docxTable     `xml:"tbl"`
	} `xml:"body"`
}

type docxParagraph struct {
	Nodes []docxNode `xml:",any"`
}

type docxNode struct {
	XMLName  xml.Name
	Text     string     `xml:",chardata"`
	Children []docxNode `xml:",any"`
}

type docxTable struct {
	Rows []struct {
		Cells []struct {
			Paragraphs []docxParagraph `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

// Containers whose runs are part of the visible paragraph text. Deletions
// (w:del) are skipped.
var docxRunContainers = map[string]bool{
	"hyperlink":  true,
	"ins":        true,
	"smartTag":   true,
	"fldSimple":  true,
	"customXml":  true,
	"sdt":        true,
	"sdtContent": true,
}

func (p docxParagraph) text() string {
	var b strings.Builder
	writeDocxNodes(&b, p.Nodes)
	return b.String()
}

func writeDocxNodes(b *strings.Builder, nodes []docxNode) {
	for _, n := range nodes {
		switch {
		case n.XMLName.Local == "r":
			writeDocxRun(b, n.Children)
		case docxRunContainers[n.XMLName.Local]:
			writeDocxNodes(b, n.Children)
		}
	}
}

func writeDocxRun(b *strings.Builder, items []docxNode) {
	for _, it := range items {
		switch it.XMLName.Local {
		case "t":
			b.WriteString(it.Text)
		case "tab":
			b.WriteByte('\t')
		case "br", "cr":
			b.WriteByte('\n')
		}
	}
}

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx zip: %w", err)
	}

	var raw []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		if f.UncompressedSize64 > MaxDOCXDocumentBytes {
			return "", errDOCXTooLarge
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		raw, err = io.ReadAll(io.LimitReader(rc, MaxDOCXDocumentBytes+1))
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		if len(raw) > MaxDOCXDocumentBytes {
			return "", errDOCXTooLarge
		}
		break
	}
	if raw == nil {
		return "", errors.New("word/document.xml not found")
	}

	var doc docxDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("decode document.xml: %w", err)
	}

	var b strings.Builder
	for _, p := range doc.Body.Paragraphs {
		t := p.text()
		if strings.TrimSpace(t) == "" {
			continue
		}
		b.WriteString(t)
		b.WriteByte('\n')
	}
	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			var cells []string
			for _, cell := range row.Cells {
				parts := make([]string, 0, len(cell.Paragraphs))
				for _, p := range cell.Paragraphs {
					parts = append(parts, p.text())
				}
				if c := strings.TrimSpace(strings.Join(parts, "\n")); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) > 0 {
				b.WriteString(strings.Join(cells, " | "))
				b.WriteByte('\n')
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}
