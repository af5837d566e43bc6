// Package llm wraps the hosted model that turns meeting audio into structured minutes.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/compia/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var ErrEmptyResponse = errors.New("model returned an empty response")

// Request is one multimodal generation call
type Request struct {
	SystemPrompt string
	Prompt       string
	Audio        []byte
	MimeType     string
}

// GeminiClient calls Gemini through the genai SDK and retries transient failures
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	maxRetries  uint64
	logger      *zap.Logger
	newBackOff  func() backoff.BackOff
}

// Option configures GeminiClient
type Option func(*genaiSettings)

type genaiSettings struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the client at another endpoint
func WithBaseURL(url string) Option {
	return func(s *genaiSettings) { s.baseURL = url }
}

// WithHTTPClient overrides the transport
func WithHTTPClient(c *http.Client) Option {
	return func(s *genaiSettings) { s.httpClient = c }
}

// NewGeminiClient creates a client for cfg.Model
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger, opts ...Option) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	var settings genaiSettings
	for _, opt := range opts {
		opt(&settings)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  settings.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: settings.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		logger:      logger.Named("llm"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 20 * time.Second
			return b
		},
	}, nil
}

// Model returns the model name recorded on generated minutes
func (c *GeminiClient) Model() string {
	return c.model
}

// GenerateJSON sends the prompt and optional audio and returns the raw text.
// The model is asked for application/json but callers still clean the output.
func (c *GeminiClient) GenerateJSON(ctx context.Context, req Request) (string, error) {
	parts := make([]*genai.Part, 0, 2)
	if len(req.Audio) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Audio, req.MimeType))
	}
	if req.Prompt != "" {
		parts = append(parts, genai.NewPartFromText(req.Prompt))
	}
	if len(parts) == 0 {
		return "", errors.New("llm request has no content")
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(c.temperature),
	}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	var text string
	attempt := 0
	op := func() error {
		attempt++
		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		resp, err := c.client.Models.GenerateContent(callCtx, c.model, contents, genCfg)
		if err != nil {
			if !retryable(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		text = resp.Text()
		if text == "" {
			return backoff.Permanent(ErrEmptyResponse)
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("LLM call failed, retrying",
			zap.String("model", c.model),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	return text, nil
}

// retryable reports whether a failed call may succeed on a later attempt:
// rate limiting, server errors and transport failures are, client errors are not
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return true
}
