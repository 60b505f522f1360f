package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/ctxutil"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

// Document extracts text from scanned documents with a Document AI OCR processor.
type Document interface {
	ProcessBytes(ctx context.Context, data []byte, mimeType string) (string, error)
	Close() error
}

type DocumentConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
}

type documentService struct {
	log       *logger.Logger
	client    *documentai.DocumentProcessorClient
	processor string
}

// Only the text and page layouts are needed to rebuild page text.
var documentFieldMask = []string{"text", "pages.page_number", "pages.layout"}

func NewDocument(ctx context.Context, log *logger.Logger, cfg DocumentConfig) (Document, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "us"
	}
	name := processorName(cfg.ProjectID, location, cfg.ProcessorID, cfg.ProcessorVersion)
	if name == "" {
		return nil, fmt.Errorf("documentai: DOCUMENTAI_PROJECT_ID and DOCUMENTAI_PROCESSOR_ID are required")
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)

	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)
	c, err := documentai.NewDocumentProcessorClient(ctxutil.Default(ctx), opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	slog := log.With("service", "gcp.Document")
	slog.Info("Document AI initialized", "endpoint", endpoint, "processor", name)
	return &documentService{log: slog, client: c, processor: name}, nil
}

func (s *documentService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// ProcessBytes returns the page texts of the document joined by blank lines.
func (s *documentService) ProcessBytes(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), 3*time.Minute)
	defer cancel()

	resp, err := s.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: s.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: data, MimeType: mimeType},
		},
		FieldMask: &fieldmaskpb.FieldMask{Paths: documentFieldMask},
	})
	if err != nil {
		return "", fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return documentText(resp.Document), nil
}

func documentText(doc *documentaipb.Document) string {
	if doc == nil {
		return ""
	}
	var pages []string
	for _, p := range doc.Pages {
		if p == nil || p.Layout == nil {
			continue
		}
		if t := strings.TrimSpace(textFromAnchor(doc.Text, p.Layout.TextAnchor)); t != "" {
			pages = append(pages, t)
		}
	}
	if len(pages) == 0 {
		return strings.TrimSpace(doc.Text)
	}
	return strings.Join(pages, "\n\n")
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || len(anchor.TextSegments) == 0 || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		if seg == nil {
			continue
		}
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start >= end {
			continue
		}
		b.WriteString(full[start:end])
	}
	return b.String()
}

func processorName(project, location, processorID, version string) string {
	project = strings.TrimSpace(project)
	location = strings.TrimSpace(location)
	processorID = strings.TrimSpace(processorID)
	version = strings.TrimSpace(version)

	if project == "" || location == "" || processorID == "" {
		return ""
	}
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s", project, location, processorID)
	if version != "" {
		return base + "/processorVersions/" + version
	}
	return base
}
