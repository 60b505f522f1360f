package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/record"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/extract"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/http/response"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/observability"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/apierr"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

const (
	DefaultMaxUploadBytes = 10 << 20

	uploadField = "file"
	// Room for multipart headers and boundaries around the file part.
	multipartSlack = 64 << 10

	msgNoFilePart     = "No file part in the request"
	msgNoSelectedFile = "No selected file"
	msgTooLarge       = "File size exceeds the 10MB limit"
	msgNoExtracted    = "No text could be extracted from the file"
	msgOCRUnavailable = "Image processing is not available. Required packages not installed."
)

type UploadHandlerDeps struct {
	Log           *logger.Logger
	Extractors    *extract.Registry
	MaxBytes      int64
	MaxTextLength int
}

type UploadHandler struct {
	log        *logger.Logger
	extractors *extract.Registry
	maxBytes   int64
	maxText    int
}

func NewUploadHandler(deps UploadHandlerDeps) *UploadHandler {
	maxBytes := deps.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	maxText := deps.MaxTextLength
	if maxText <= 0 {
		maxText = analysis.DefaultMaxTextLength
	}
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &UploadHandler{
		log:        log.With("handler", "UploadHandler"),
		extractors: deps.Extractors,
		maxBytes:   maxBytes,
		maxText:    maxText,
	}
}

// POST /upload_file
func (h *UploadHandler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartSlack)

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		response.RespondAPIError(c, h.formError(c, err))
		return
	}
	defer file.Close()

	if header.Filename == "" {
		response.RespondAPIError(c, apierr.New(http.StatusBadRequest, "no_selected_file", errors.New(msgNoSelectedFile)))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		response.RespondAPIError(c, apierr.Newf(http.StatusInternalServerError, "upload_read_failed", "Error processing file: %v", err))
		return
	}
	if int64(len(data)) > h.maxBytes {
		response.RespondAPIError(c, apierr.New(http.StatusRequestEntityTooLarge, "file_too_large", errors.New(msgTooLarge)))
		return
	}

	res, err := h.extractors.Extract(c.Request.Context(), header.Filename, data)
	switch {
	case errors.Is(err, extract.ErrUnsupported):
		response.RespondAPIError(c, apierr.Newf(http.StatusUnsupportedMediaType, "unsupported_file_type", "Unsupported file type: .%s", extract.Extension(header.Filename)))
		return
	case errors.Is(err, extract.ErrUnavailable):
		response.RespondAPIError(c, apierr.New(http.StatusNotImplemented, "ocr_unavailable", errors.New(msgOCRUnavailable)))
		return
	case err != nil:
		h.log.Error("File upload error", "filename", header.Filename, "error", err)
		response.RespondAPIError(c, apierr.Newf(http.StatusInternalServerError, "extraction_failed", "Error processing file: %v", err))
		return
	}

	if !res.OK() {
		msg := res.Reason
		if msg == "" {
			msg = msgNoExtracted
		}
		response.RespondAPIError(c, apierr.New(http.StatusUnprocessableEntity, "no_text_extracted", errors.New(msg)))
		return
	}

	text, truncated := analysis.Truncate(res.Text, h.maxText)
	if truncated {
		observability.Current().IncTruncation("upload_file")
		response.RespondOK(c, gin.H{"text": text, "warning": record.TruncationNotice(h.maxText).Description})
		return
	}
	response.RespondOK(c, gin.H{"text": text})
}

// formError classifies a FormFile failure. A part named "file" without a
// filename is parsed as a plain value, which is how an empty file picker
// arrives.
func (h *UploadHandler) formError(c *gin.Context, err error) *apierr.Error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return apierr.New(http.StatusRequestEntityTooLarge, "file_too_large", errors.New(msgTooLarge))
	}
	if errors.Is(err, http.ErrMissingFile) {
		if form := c.Request.MultipartForm; form != nil {
			if _, ok := form.Value[uploadField]; ok {
				return apierr.New(http.StatusBadRequest, "no_selected_file", errors.New(msgNoSelectedFile))
			}
		}
	}
	h.log.Debug("Upload without file part", "error", err)
	return apierr.New(http.StatusBadRequest, "no_file_part", errors.New(msgNoFilePart))
}
