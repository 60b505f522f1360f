package app

import (
	"fmt"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/prompt"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/schema"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/segment"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/data/repos"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/extract"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/lexicon"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

type Repos struct {
	AnalysisRun repos.AnalysisRunRepo
}

type Services struct {
	Analysis   analysis.Service
	Lexicon    lexicon.Service
	Extractors *extract.Registry
}

func wireRepos(log *logger.Logger, clients Clients) Repos {
	if clients.DB == nil {
		return Repos{}
	}
	log.Info("Wiring repos...")
	return Repos{AnalysisRun: repos.NewAnalysisRunRepo(clients.DB.DB(), log)}
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	segmenter, err := segment.New()
	if err != nil {
		return Services{}, fmt.Errorf("init segmenter: %w", err)
	}
	prompts, err := prompt.New()
	if err != nil {
		return Services{}, fmt.Errorf("init prompts: %w", err)
	}
	validator, err := schema.New()
	if err != nil {
		return Services{}, fmt.Errorf("init record schema: %w", err)
	}

	var cache analysis.Cache
	if clients.Cache != nil {
		cache = clients.Cache
	}

	analyzer, err := analysis.NewService(
		log,
		clients.Model,
		segmenter,
		prompts,
		validator,
		cache,
		reposet.AnalysisRun,
		analysis.Config{MaxTextLength: cfg.MaxTextLength},
	)
	if err != nil {
		return Services{}, err
	}

	lex, err := lexicon.NewService(log, lexicon.NewModelSource(clients.Model, prompts), cache)
	if err != nil {
		return Services{}, err
	}

	var docOCR extract.DocumentOCR
	if clients.Document != nil {
		docOCR = clients.Document
	}
	var imageOCR extract.ImageOCR
	if clients.Vision != nil {
		imageOCR = clients.Vision
	}
	extractors := extract.NewRegistry(log,
		extract.NewPDF(log, docOCR),
		extract.NewDOCX(),
		extract.NewImage(imageOCR),
		extract.NewXLSX(),
	)

	return Services{Analysis: analyzer, Lexicon: lex, Extractors: extractors}, nil
}
