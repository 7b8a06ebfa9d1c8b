// Package openai talks to an OpenAI-compatible chat completion API to
// compose grounded answers from retrieved schemes.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/schemedex/internal/domain"
	"github.com/kailas-cloud/schemedex/internal/usecase/scheme"
)

const systemPrompt = `You are an assistant helping Indian citizens discover government welfare schemes.
Answer ONLY from the scheme context provided. If the context does not cover the question, say so.
Keep answers short and practical: what the scheme gives, who qualifies, and how to apply.`

// maxContextSchemes bounds how many retrieved schemes go into the prompt.
const maxContextSchemes = 5

// Answerer composes natural-language answers over retrieved schemes
// using an OpenAI-compatible chat API.
type Answerer struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// Config holds the answer provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Logger   *zap.Logger
}

// NewAnswerer creates an OpenAI-compatible answer provider.
func NewAnswerer(cfg *Config) *Answerer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answerer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   logger,
	}
}

// Answer composes a grounded answer for the question from the matches.
func (a *Answerer) Answer(ctx context.Context, question string, matches []scheme.Match) (string, error) {
	if len(matches) == 0 {
		return "No matching government schemes were found for this question.", nil
	}

	start := time.Now()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(question, matches)},
		},
	})
	if err != nil {
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response: %w", domain.ErrAnswerProviderError)
	}

	a.logger.Debug("answer composed",
		zap.String("model", a.model),
		zap.Int("context_schemes", len(matches)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (a *Answerer) HealthCheck(ctx context.Context) error {
	if _, err := a.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// buildPrompt renders the retrieved schemes into the user message.
func buildPrompt(question string, matches []scheme.Match) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nScheme context:\n")

	n := len(matches)
	if n > maxContextSchemes {
		n = maxContextSchemes
	}
	for i := 0; i < n; i++ {
		m := matches[i]
		fmt.Fprintf(&b, "\n%d. %s (%s, %s)\n", i+1, m.Name, m.Category, m.Ministry)
		if m.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", m.Description)
		}
		if m.Benefits != "" {
			fmt.Fprintf(&b, "   Benefits: %s\n", m.Benefits)
		}
		if m.ApplicationProcess != "" {
			fmt.Fprintf(&b, "   How to apply: %s\n", m.ApplicationProcess)
		}
		if m.Helpline != "" {
			fmt.Fprintf(&b, "   Helpline: %s\n", m.Helpline)
		}
	}
	return b.String()
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrAnswerProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrAnswerProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("completion API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
