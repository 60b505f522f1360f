package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/MuhammadMuneeb007/OpenGrammar/internal/http/handlers"
	httpMW "github.com/MuhammadMuneeb007/OpenGrammar/internal/http/middleware"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/observability"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	HealthHandler   *httpH.HealthHandler
	AnalysisHandler *httpH.AnalysisHandler
	UploadHandler   *httpH.UploadHandler
	LexiconHandler  *httpH.LexiconHandler
	RunsHandler     *httpH.RunsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "opengrammar"
	}

	r := gin.New()
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.Recovery(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	// Analysis
	if cfg.AnalysisHandler != nil {
		r.POST("/check_grammar", cfg.AnalysisHandler.CheckGrammar)
	}
	if cfg.UploadHandler != nil {
		r.POST("/upload_file", cfg.UploadHandler.UploadFile)
	}

	// Lexicon
	if cfg.LexiconHandler != nil {
		r.GET("/get_synonyms/:word", cfg.LexiconHandler.Synonyms)
		r.GET("/get_antonyms/:word", cfg.LexiconHandler.Antonyms)
	}

	// History
	if cfg.RunsHandler != nil {
		r.GET("/analysis_runs", cfg.RunsHandler.List)
	}

	// Preflight requests without CORS headers still get an empty 204.
	r.OPTIONS("/*path", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return r
}
