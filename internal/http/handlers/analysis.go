package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/http/response"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/apierr"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

const (
	msgNoText    = "No text provided"
	msgEmptyText = "Empty text provided"
)

type AnalysisHandler struct {
	log      *logger.Logger
	analyzer analysis.Service
}

func NewAnalysisHandler(log *logger.Logger, analyzer analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{log: log.With("handler", "AnalysisHandler"), analyzer: analyzer}
}

type checkGrammarRequest struct {
	Text *string `json:"text"`
	Goal string  `json:"goal"`
	Tone string  `json:"tone"`
}

// POST /check_grammar
func (h *AnalysisHandler) CheckGrammar(c *gin.Context) {
	var req checkGrammarRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == nil {
		response.RespondAPIError(c, apierr.New(http.StatusBadRequest, "no_text", errors.New(msgNoText)))
		return
	}
	text := strings.TrimSpace(*req.Text)
	if text == "" {
		response.RespondAPIError(c, apierr.New(http.StatusBadRequest, "empty_text", errors.New(msgEmptyText)))
		return
	}

	res, err := h.analyzer.Analyze(c.Request.Context(), analysis.Input{Text: text, Goal: req.Goal, Tone: req.Tone})
	if errors.Is(err, analysis.ErrEmptyText) {
		response.RespondAPIError(c, apierr.New(http.StatusBadRequest, "empty_text", errors.New(msgEmptyText)))
		return
	}
	if err != nil {
		h.log.Error("Analysis failed", "error", err)
		response.RespondAPIError(c, err)
		return
	}

	score, _ := res.Record.QualityScore()
	h.log.Info("Grammar check completed", "score", score, "status", res.Status, "strategy", res.Strategy, "cached", res.Cached)
	response.RespondOK(c, res.Record)
}
