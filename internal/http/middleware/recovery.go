package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/http/response"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

const InternalErrorMessage = "Internal server error occurred. Please try again later."

// Recovery turns a handler panic into the generic 500 body.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if log != nil {
			log.Error("Handler panic", "path", c.Request.URL.Path, "panic", recovered)
		}
		c.Abort()
		c.JSON(http.StatusInternalServerError, response.ErrorBody{Error: InternalErrorMessage, Code: "internal"})
	})
}
