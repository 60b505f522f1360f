package app

import (
	"context"
	"fmt"
	"time"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/http"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/observability"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/envutil"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Server   *http.Server

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "opengrammar",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	clients, err := wireClients(context.Background(), log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(log, clients)
	serviceset, err := wireServices(log, cfg, clients, reposet)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, cfg, clients, reposet, serviceset)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		Server:       wireServer(log, cfg, handlerset),
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background collectors. It is a no-op when metrics are off.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Metrics == nil {
		return
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	if a.Clients.DB != nil {
		a.Metrics.StartDBCollector(ctx, a.Log, a.Clients.DB.DB())
	}
	if a.Clients.Cache != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Cache.Client())
	}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Start()

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("Server listening", "addr", a.Server.Addr())
		errCh <- a.Server.Run()
	}()

	select {
	case <-ctx.Done():
		a.Log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.Log.Warn("Server shutdown incomplete", "error", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
