package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/envutil"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	llmRequests *CounterVec
	llmLatency  *HistogramVec
	llmTokens   *CounterVec

	analyses        *CounterVec
	normalizeResult *CounterVec
	schemaViolation *Counter
	truncations     *CounterVec

	extractions    *CounterVec
	extractLatency *HistogramVec

	cacheLookups *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process-wide metrics, or nil when metrics are disabled.
// Every method is safe to call on a nil *Metrics.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

// New builds an unregistered Metrics set.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("og_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"og_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("og_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("og_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("og_api_requests_error_total", "Total API requests with 5xx status."),
		llmRequests: NewCounterVec("og_llm_requests_total", "Model requests by provider/model/status.", []string{"provider", "model", "status"}),
		llmLatency: NewHistogramVec(
			"og_llm_request_duration_seconds",
			"Model request latency in seconds by provider/model/status.",
			[]string{"provider", "model", "status"},
			[]float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		),
		llmTokens:       NewCounterVec("og_llm_tokens_total", "Model tokens by provider/direction.", []string{"provider", "direction"}),
		analyses:        NewCounterVec("og_analyses_total", "Text analyses by status.", []string{"status"}),
		normalizeResult: NewCounterVec("og_normalize_strategy_total", "Model replies recovered by strategy.", []string{"strategy"}),
		schemaViolation: NewCounter("og_record_schema_violations_total", "Normalized records that do not match the record schema."),
		truncations:     NewCounterVec("og_input_truncations_total", "Inputs cut to the length limit by source.", []string{"source"}),
		extractions:     NewCounterVec("og_extractions_total", "File extractions by kind/outcome.", []string{"kind", "outcome"}),
		extractLatency: NewHistogramVec(
			"og_extraction_duration_seconds",
			"File extraction duration in seconds by kind.",
			[]string{"kind"},
			[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		cacheLookups: NewCounterVec("og_cache_lookups_total", "Cache lookups by cache/result.", []string{"cache", "result"}),
		dbStats:      NewGaugeVec("og_db_stats", "Database connection pool stats.", []string{"metric"}),
		redisUp:      NewGauge("og_redis_up", "Redis connectivity (1=up, 0=down)."),
		redisPing:    NewGauge("og_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, pw := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.analyses, m.normalizeResult, m.schemaViolation, m.truncations,
		m.extractions, m.extractLatency,
		m.cacheLookups,
		m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(provider, model, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	provider = orUnknown(provider)
	model = orUnknown(model)
	status = strings.TrimSpace(status)
	if status == "" {
		status = "0"
	}
	m.llmRequests.Inc(provider, model, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), provider, model, status)
	}
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), provider, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), provider, "output")
	}
}

// ObserveAnalysis counts one finished analysis and how its reply was recovered.
func (m *Metrics) ObserveAnalysis(status, strategy string) {
	if m == nil {
		return
	}
	m.analyses.Inc(orUnknown(status))
	if strategy != "" {
		m.normalizeResult.Inc(strategy)
	}
}

func (m *Metrics) IncSchemaViolation() {
	if m == nil {
		return
	}
	m.schemaViolation.Inc()
}

func (m *Metrics) IncTruncation(source string) {
	if m == nil {
		return
	}
	m.truncations.Inc(orUnknown(source))
}

func (m *Metrics) ObserveExtraction(kind, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	kind = orUnknown(kind)
	m.extractions.Inc(kind, orUnknown(outcome))
	m.extractLatency.Observe(dur.Seconds(), kind)
}

func (m *Metrics) ObserveCache(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(orUnknown(cache), result)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings rdb on every scrape interval. The client is owned
// by the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	if len(status) < 3 {
		return false
	}
	if _, err := strconv.Atoi(status); err != nil {
		return false
	}
	return status[0] == '5'
}
