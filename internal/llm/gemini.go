package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Options configures a GeminiClient.
type Options struct {
	APIKey      string
	Model       string
	Temperature float64 // default sampling temperature
	MaxTokens   int     // default completion budget
}

// GeminiClient is the production Client backed by the Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient dials the Gemini API with the given options.
func NewGeminiClient(ctx context.Context, opts Options) (*GeminiClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client:      client,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}, nil
}

// maxAttempts bounds retries for transient API failures (throttling, 5xx).
const maxAttempts = 3

// genaiRole maps our two-role history onto the API's typed roles. The
// RoleUser/RoleModel constants are untyped strings, so the conversion here
// pins the genai.Role type the content constructor expects.
func genaiRole(role string) genai.Role {
	if role == "assistant" {
		return genai.RoleModel
	}
	return genai.RoleUser
}

// Invoke sends the request to Gemini and returns the reply text. Transient
// failures are retried with exponential backoff; client-side errors such as
// invalid requests or bad credentials are not retried.
func (g *GeminiClient) Invoke(ctx context.Context, req Request) (string, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		contents = append(contents, genai.NewContentFromText(m.Content, genaiRole(m.Role)))
	}

	temp := float32(g.temperature)
	if req.Temperature >= 0 {
		temp = float32(req.Temperature)
	}
	maxTokens := int32(g.maxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int32(req.MaxTokens)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: maxTokens,
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.JSONResponse {
		cfg.ResponseMIMEType = "application/json"
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second

	return backoff.RetryWithData(func() (string, error) {
		res, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			if !retryable(err) {
				return "", backoff.Permanent(err)
			}
			log.Warn().Err(err).Str("model", g.model).Msg("gemini call failed, retrying")
			return "", err
		}
		text := res.Text()
		if text == "" {
			return "", backoff.Permanent(ErrEmptyCompletion)
		}
		return text, nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx))
}

// retryable reports whether an API failure is worth another attempt.
// Throttling and server-side errors are; validation and auth errors are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return true
}
