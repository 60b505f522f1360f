package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/ctxutil"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

// Vision runs document text detection on in-memory images.
type Vision interface {
	OCRImageBytes(ctx context.Context, img []byte) (string, error)
	Close() error
}

type visionService struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

func NewVision(ctx context.Context, log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c, err := vision.NewImageAnnotatorClient(ctxutil.Default(ctx), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	slog := log.With("service", "gcp.Vision")
	slog.Info("Vision OCR initialized")
	return &visionService{log: slog, client: c}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// OCRImageBytes returns the full text annotation with its line breaks, or ""
// when the image has no detectable text.
func (s *visionService) OCRImageBytes(ctx context.Context, img []byte) (string, error) {
	if len(img) == 0 {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), 60*time.Second)
	defer cancel()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: img},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	}
	resp, err := s.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	return textFromAnnotation(resp)
}

func textFromAnnotation(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return "", fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}
	if fta := r0.FullTextAnnotation; fta != nil && strings.TrimSpace(fta.Text) != "" {
		return strings.TrimSpace(fta.Text), nil
	}
	// DOCUMENT_TEXT_DETECTION sometimes only fills the per-word annotations.
	if len(r0.TextAnnotations) > 0 && r0.TextAnnotations[0] != nil {
		return strings.TrimSpace(r0.TextAnnotations[0].Description), nil
	}
	return "", nil
}
