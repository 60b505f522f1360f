package app

import (
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/http"
	httpH "github.com/MuhammadMuneeb007/OpenGrammar/internal/http/handlers"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/observability"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Analysis *httpH.AnalysisHandler
	Upload   *httpH.UploadHandler
	Lexicon  *httpH.LexiconHandler
	Runs     *httpH.RunsHandler
}

func wireHandlers(log *logger.Logger, cfg Config, clients Clients, reposet Repos, services Services) Handlers {
	log.Info("Wiring handlers...")

	checks := map[string]httpH.Check{}
	if clients.DB != nil {
		checks["database"] = clients.DB.Ping
	}
	if clients.Cache != nil {
		checks["redis"] = clients.Cache.Ping
	}

	h := Handlers{
		Health:   httpH.NewHealthHandler(checks),
		Analysis: httpH.NewAnalysisHandler(log, services.Analysis),
		Upload: httpH.NewUploadHandler(httpH.UploadHandlerDeps{
			Log:           log,
			Extractors:    services.Extractors,
			MaxBytes:      cfg.MaxUploadBytes,
			MaxTextLength: cfg.MaxTextLength,
		}),
		Lexicon: httpH.NewLexiconHandler(log, services.Lexicon),
	}
	if reposet.AnalysisRun != nil {
		h.Runs = httpH.NewRunsHandler(reposet.AnalysisRun)
	}
	return h
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers) *http.Server {
	return http.NewServer(":"+cfg.Port, http.RouterConfig{
		Log:         log,
		Metrics:     observability.Current(),
		CORSOrigins: cfg.CORSOrigins,

		HealthHandler:   handlers.Health,
		AnalysisHandler: handlers.Analysis,
		UploadHandler:   handlers.Upload,
		LexiconHandler:  handlers.Lexicon,
		RunsHandler:     handlers.Runs,
	})
}
