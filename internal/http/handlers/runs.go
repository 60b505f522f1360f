package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/data/repos"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/http/response"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/dbctx"
)

type RunsHandler struct {
	runs repos.AnalysisRunRepo
}

func NewRunsHandler(runs repos.AnalysisRunRepo) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// GET /analysis_runs?limit=N
func (h *RunsHandler) List(c *gin.Context) {
	limit := 0
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	runs, err := h.runs.ListRecent(dbc, limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_runs_failed", err)
		return
	}
	counts, err := h.runs.CountByStatus(dbc)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_runs_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"runs": runs, "counts": counts})
}
