package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/http/response"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/lexicon"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

type LexiconHandler struct {
	log *logger.Logger
	lex lexicon.Service
}

func NewLexiconHandler(log *logger.Logger, lex lexicon.Service) *LexiconHandler {
	return &LexiconHandler{log: log.With("handler", "LexiconHandler"), lex: lex}
}

// GET /get_synonyms/:word
func (h *LexiconHandler) Synonyms(c *gin.Context) {
	word := c.Param("word")
	out, err := h.lex.Synonyms(c.Request.Context(), word)
	if err != nil {
		h.log.Error("Error getting synonyms", "word", word, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "lexicon_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"synonyms": out})
}

// GET /get_antonyms/:word
func (h *LexiconHandler) Antonyms(c *gin.Context) {
	word := c.Param("word")
	out, err := h.lex.Antonyms(c.Request.Context(), word)
	if err != nil {
		h.log.Error("Error getting antonyms", "word", word, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "lexicon_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"antonyms": out})
}
