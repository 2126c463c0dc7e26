// Package llms is the adapter to the external chat-completion service. Each
// relay request becomes exactly one upstream call with fixed sampling
// parameters; there are no retries, so a single upstream failure is terminal
// for the request.
package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aidosk/tutorgate/pkg/config"
)

// OpenAIProvider calls an OpenAI-compatible chat-completions endpoint.
type OpenAIProvider struct {
	config     *config.LLMConfig
	httpClient *http.Client
}

// NewOpenAIProviderFromConfig creates a provider from config.
func NewOpenAIProviderFromConfig(cfg *config.LLMConfig) (*OpenAIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}

	return &OpenAIProvider{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}, nil
}

// GetModelName returns the configured model identifier.
func (p *OpenAIProvider) GetModelName() string {
	return p.config.Model
}

// Instruction returns the system instruction sent with every question.
func (p *OpenAIProvider) Instruction() string {
	if p.config.Instruction != "" {
		return p.config.Instruction
	}
	return buildInstruction(p.config.Subject)
}

func buildInstruction(subject string) string {
	return fmt.Sprintf("You are Tutor, a friendly %s tutor. "+
		"Only answer questions about %s; if asked about anything else, politely decline "+
		"and invite a question on %s instead. "+
		"Never provide answer keys, ready-made solutions or translations. Explain concepts "+
		"so the student can work out the answer themselves. "+
		"Answer in one short paragraph.", subject, subject, subject)
}

// Complete sends a validated question to the completion service and returns
// the answer text. The credential is checked before any network call.
func (p *OpenAIProvider) Complete(ctx context.Context, question string) (string, error) {
	if p.config.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	request := ChatRequest{
		Model: p.config.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: p.Instruction()},
			{Role: "user", Content: question},
		},
		Temperature: *p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	}

	response, err := p.makeRequest(ctx, request)
	if err != nil {
		return "", err
	}

	if response.Error != nil {
		slog.Error("Completion API error",
			"model", p.config.Model,
			"type", response.Error.Type,
			"message", response.Error.Message,
		)
		return "", &UpstreamError{StatusCode: http.StatusOK, Message: response.Error.Type}
	}

	if len(response.Choices) == 0 {
		return "", ErrEmptyAnswer
	}

	answer := strings.TrimSpace(response.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyAnswer
	}

	return answer, nil
}

func (p *OpenAIProvider) makeRequest(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Host+"/chat/completions", bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// The payload goes to the log, never to the caller.
		if apiErr := parseErrorResponse(body); apiErr != nil {
			slog.Error("Completion request failed",
				"status", resp.StatusCode,
				"type", apiErr.Type,
				"code", apiErr.Code,
				"message", apiErr.Message,
			)
			return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: apiErr.Message}
		}
		slog.Error("Completion request failed",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var response ChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &response, nil
}
