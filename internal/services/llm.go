package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/config"
	"github.com/pagetone/pagetone-backend/internal/logger"
)

// TextProvider generates text from a system prompt plus user content. Both
// backends speak plain HTTP; responses are non-streaming.
type TextProvider interface {
	Generate(ctx context.Context, system string, user string) (string, error)
}

// NewTextProvider selects the backend named in the config.
func NewTextProvider(cfg *config.Config, log *logger.Logger) (TextProvider, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		log.Info("Using OpenAI text provider", "model", cfg.OpenAIModel)
		return &openAIProvider{
			log:        log.With("service", "OpenAIProvider"),
			baseURL:    "https://api.openai.com",
			apiKey:     cfg.OpenAIKey,
			model:      cfg.OpenAIModel,
			httpClient: &http.Client{Timeout: 60 * time.Second},
			maxRetries: 4,
		}, nil
	case "ollama":
		log.Info("Using Ollama text provider", "model", cfg.OllamaModel, "url", cfg.OllamaURL)
		return &ollamaProvider{
			log:        log.With("service", "OllamaProvider"),
			baseURL:    strings.TrimRight(cfg.OllamaURL, "/"),
			model:      cfg.OllamaModel,
			httpClient: &http.Client{Timeout: 120 * time.Second},
			maxRetries: 2,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLMProvider)
	}
}

type providerHTTPError struct {
	StatusCode int
	Body       string
}

func (e *providerHTTPError) Error() string {
	return fmt.Sprintf("llm http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	if code >= 500 && code <= 599 {
		return true
	}
	return false
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}
	var httpErr *providerHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

func jitterSleep(base time.Duration) time.Duration {
	// +/- 20%
	if base <= 0 {
		return 0
	}
	j := 0.2
	delta := base.Seconds() * j
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

func postJSONWithRetry(ctx context.Context, log *logger.Logger, client *http.Client, url string, headers map[string]string, body any, out any, maxRetries int) error {
	backoff := 1 * time.Second

	doOnce := func() (*http.Response, []byte, error) {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, nil, err
		}
		raw, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return resp, nil, readErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp, raw, &providerHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
		}
		return resp, raw, nil
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, raw, err := doOnce()
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("llm decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}
		if !isRetryableErr(err) {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		sleepFor := backoff
		if resp != nil {
			ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
			if ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		log.Warn("LLM request retrying",
			"url", url,
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

type openAIProvider struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *openAIProvider) Generate(ctx context.Context, system string, user string) (string, error) {
	req := chatCompletionRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	}
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	var resp chatCompletionResponse
	if err := postJSONWithRetry(ctx, p.log, p.httpClient, p.baseURL+"/v1/chat/completions", headers, req, &resp, p.maxRetries); err != nil {
		return "", fmt.Errorf("%w: openai generate: %v", apperr.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", apperr.ErrUpstream)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type ollamaProvider struct {
	log        *logger.Logger
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

func (p *ollamaProvider) Generate(ctx context.Context, system string, user string) (string, error) {
	req := ollamaGenerateRequest{
		Model:  p.model,
		Prompt: system + "\n\n" + user,
		Stream: false,
	}
	var resp ollamaGenerateResponse
	if err := postJSONWithRetry(ctx, p.log, p.httpClient, p.baseURL+"/api/generate", nil, req, &resp, p.maxRetries); err != nil {
		return "", fmt.Errorf("%w: ollama generate: %v", apperr.ErrUpstream, err)
	}
	return strings.TrimSpace(resp.Response), nil
}
