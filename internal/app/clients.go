package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/data/db"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/gcp"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/gemini"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/openai"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/redis"
)

type Clients struct {
	Model    analysis.Model
	Cache    *redis.Cache
	DB       *db.Service
	Vision   gcp.Vision
	Document gcp.Document
}

func newModel(log *logger.Logger, cfg Config) (analysis.Model, error) {
	switch cfg.LLMProvider {
	case gemini.Provider, "":
		return gemini.New(log, cfg.Gemini)
	case openai.Provider:
		return openai.New(log, cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

// wireClients creates every outbound client. The model is required; the
// cache, database and OCR clients are optional and start concurrently.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	model, err := newModel(log, cfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init model client: %w", err)
	}
	out := Clients{Model: model}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Redis.Addr != "" {
		g.Go(func() error {
			c, err := redis.NewCache(gctx, log, cfg.Redis)
			if err != nil {
				return fmt.Errorf("init redis cache: %w", err)
			}
			mu.Lock()
			out.Cache = c
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		svc, err := db.Open(log, cfg.DB)
		if errors.Is(err, db.ErrDisabled) {
			log.Info("Analysis history disabled (DB_DRIVER unset)")
			return nil
		}
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		mu.Lock()
		out.DB = svc
		mu.Unlock()
		return nil
	})

	if cfg.OCREnabled {
		g.Go(func() error {
			v, err := gcp.NewVision(gctx, log)
			if err != nil {
				return fmt.Errorf("init vision client: %w", err)
			}
			mu.Lock()
			out.Vision = v
			mu.Unlock()
			return nil
		})
		if cfg.DocumentAI.ProcessorID != "" {
			g.Go(func() error {
				d, err := gcp.NewDocument(gctx, log, cfg.DocumentAI)
				if err != nil {
					return fmt.Errorf("init document client: %w", err)
				}
				mu.Lock()
				out.Document = d
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		out.Close()
		return Clients{}, err
	}
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Document != nil {
		_ = c.Document.Close()
	}
	if c.Vision != nil {
		_ = c.Vision.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}
