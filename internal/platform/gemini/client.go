// Package gemini is a minimal client for the Generative Language API
// generateContent endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/observability"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/httpx"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

const (
	Provider       = "gemini"
	DefaultModel   = "gemini-2.0-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	endpointPath   = "/v1beta/models/{model}:generateContent"
)

var ErrEmptyReply = errors.New("gemini: reply contained no text")

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type Client struct {
	log        *logger.Logger
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
	maxRetries int
	backoff    time.Duration
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		log:        log.With("service", "GeminiClient"),
		httpClient: &http.Client{Timeout: timeout},
		url:        base + strings.ReplaceAll(endpointPath, "{model}", url.PathEscape(model)),
		apiKey:     apiKey,
		model:      model,
		maxRetries: maxRetries,
		backoff:    time.Second,
	}, nil
}

func (c *Client) Provider() string { return Provider }
func (c *Client) Model() string    { return c.model }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// GenerateText sends prompt as a single user turn and returns the joined
// text parts of the first candidate.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}}}
	var resp generateResponse
	if err := c.doWithRetry(ctx, &req, &resp); err != nil {
		return "", err
	}
	if br := resp.PromptFeedback.BlockReason; br != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", br)
	}
	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

func extractText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func (c *Client) doOnce(ctx context.Context, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpx.StatusError{Provider: Provider, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *Client) doWithRetry(ctx context.Context, body any, out *generateResponse) error {
	backoff := c.backoff
	start := time.Now()
	metrics := observability.Current()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				metrics.ObserveLLMRequest(Provider, c.model, "decode_error", time.Since(start), 0, 0)
				return fmt.Errorf("gemini decode error: %w", uErr)
			}
			metrics.ObserveLLMRequest(Provider, c.model, statusOf(resp, nil), time.Since(start),
				out.UsageMetadata.PromptTokenCount, out.UsageMetadata.CandidatesTokenCount)
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			metrics.ObserveLLMRequest(Provider, c.model, statusOf(resp, err), time.Since(start), 0, 0)
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("Gemini request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

func statusOf(resp *http.Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case err != nil:
		return "error"
	}
	return "unknown"
}
