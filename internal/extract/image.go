package extract

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ImageOCR reads text from an encoded image.
type ImageOCR interface {
	OCRImageBytes(ctx context.Context, img []byte) (string, error)
}

type Image struct {
	ocr ImageOCR
}

// NewImage builds the image adapter. With a nil ocr every extraction
// returns ErrUnavailable.
func NewImage(ocr ImageOCR) *Image { return &Image{ocr: ocr} }

func (i *Image) Kind() string         { return "image" }
func (i *Image) Extensions() []string { return []string{"png", "jpg", "jpeg"} }

// Available reports whether an OCR backend is configured.
func (i *Image) Available() bool { return i != nil && i.ocr != nil }

func (i *Image) Extract(ctx context.Context, data []byte) (Result, error) {
	if !i.Available() {
		return Result{}, ErrUnavailable
	}
	text, err := i.ocr.OCRImageBytes(ctx, data)
	if err != nil {
		if st, ok := status.FromError(err); ok {
			switch st.Code() {
			case codes.Unimplemented, codes.PermissionDenied, codes.Unauthenticated:
				return Result{}, fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
			}
		}
		return Failed("Error extracting text from image: " + err.Error()), nil
	}
	if strings.TrimSpace(text) == "" {
		return Failed(NoTextReason), nil
	}
	return Ok(text, "vision_ocr"), nil
}
