package app

import (
	"strings"
	"time"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/data/db"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/http/handlers"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/envutil"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/gcp"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/gemini"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/openai"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/redis"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	LLMProvider string
	Gemini      gemini.Config
	OpenAI      openai.Config

	MaxTextLength  int
	MaxUploadBytes int64
	CORSOrigins    []string

	Redis redis.Config
	DB    db.Config

	OCREnabled bool
	DocumentAI gcp.DocumentConfig

	MetricsAddr string
}

func LoadConfig(log *logger.Logger) Config {
	timeout := envutil.Seconds("LLM_TIMEOUT_SECONDS", 120*time.Second)
	retries := envutil.Int("LLM_MAX_RETRIES", 2)

	cfg := Config{
		Port:        envutil.String("PORT", "5001"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", ""),

		LLMProvider: strings.ToLower(envutil.String("LLM_PROVIDER", gemini.Provider)),
		Gemini: gemini.Config{
			APIKey:     envutil.String("GOOGLE_API_KEY", ""),
			Model:      envutil.String("GEMINI_MODEL", gemini.DefaultModel),
			BaseURL:    envutil.String("GEMINI_BASE_URL", ""),
			Timeout:    timeout,
			MaxRetries: retries,
		},
		OpenAI: openai.Config{
			APIKey:     envutil.String("OPENAI_API_KEY", ""),
			Model:      envutil.String("OPENAI_MODEL", openai.DefaultModel),
			BaseURL:    envutil.String("OPENAI_BASE_URL", ""),
			Timeout:    timeout,
			MaxRetries: retries,
		},

		MaxTextLength:  envutil.Int("MAX_TEXT_LENGTH", analysis.DefaultMaxTextLength),
		MaxUploadBytes: envutil.Int64("MAX_UPLOAD_BYTES", handlers.DefaultMaxUploadBytes),
		CORSOrigins:    envutil.List("CORS_ALLOWED_ORIGINS", []string{"*"}),

		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Prefix:   envutil.String("REDIS_PREFIX", ""),
			TTL:      envutil.Seconds("CACHE_TTL_SECONDS", time.Hour),
		},
		DB: db.ConfigFromEnv(),

		OCREnabled: envutil.Bool("OCR_ENABLED", false),
		DocumentAI: gcp.DocumentConfig{
			ProjectID:        envutil.String("DOCUMENTAI_PROJECT_ID", ""),
			Location:         envutil.String("DOCUMENTAI_LOCATION", "us"),
			ProcessorID:      envutil.String("DOCUMENTAI_PROCESSOR_ID", ""),
			ProcessorVersion: envutil.String("DOCUMENTAI_PROCESSOR_VERSION", ""),
		},

		MetricsAddr: envutil.String("METRICS_ADDR", ":9090"),
	}
	if envutil.String("OPENAI_TEMPERATURE", "") != "" {
		temp := envutil.Float("OPENAI_TEMPERATURE", 0)
		cfg.OpenAI.Temperature = &temp
	}

	log.Info("Configuration loaded",
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
		"db_driver", cfg.DB.Driver,
		"redis", cfg.Redis.Addr != "",
		"ocr", cfg.OCREnabled,
	)
	return cfg
}
