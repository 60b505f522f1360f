package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/apierr"
)

// ErrorBody keeps "error" a plain string so existing front-ends can show it
// as-is.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorBody{Error: msg, Code: code})
}

// RespondAPIError renders err with its apierr status and code. Errors that
// carry no classification become a 500.
func RespondAPIError(c *gin.Context, err error) {
	if e, ok := apierr.As(err); ok {
		status := e.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		RespondError(c, status, e.Code, e)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
