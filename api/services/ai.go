package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var ErrNoAPIKey = errors.New("AI provider API key not configured")

// AIProvider is the interface for AI model providers
type AIProvider interface {
	GenerateText(ctx context.Context, prompt string, systemPrompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, systemPrompt string) (string, error)
	GetProviderName() string
}

// AnthropicProvider implements Claude AI
type AnthropicProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

// OpenAIProvider implements OpenAI
type OpenAIProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewAIProvider(provider, apiKey, model string) AIProvider {
	switch strings.ToLower(provider) {
	case "openai":
		return &OpenAIProvider{
			APIKey:  apiKey,
			Model:   model,
			BaseURL: "https://api.openai.com",
			Client:  &http.Client{},
		}
	default:
		return &AnthropicProvider{
			APIKey:  apiKey,
			Model:   model,
			BaseURL: "https://api.anthropic.com",
			Client:  &http.Client{},
		}
	}
}

// postJSON sends body to url and decodes a 2xx response into out, if out is
// not nil.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (a *AnthropicProvider) GetProviderName() string {
	return "anthropic"
}

func (a *AnthropicProvider) GenerateText(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	if a.APIKey == "" {
		return "", ErrNoAPIKey
	}

	reqBody := map[string]interface{}{
		"model":      a.Model,
		"max_tokens": 4096,
		"system":     systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	headers := map[string]string{
		"x-api-key":         a.APIKey,
		"anthropic-version": "2023-06-01",
	}
	if err := postJSON(ctx, a.Client, a.BaseURL+"/v1/messages", headers, reqBody, &result); err != nil {
		return "", err
	}

	if len(result.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	return result.Content[0].Text, nil
}

// GenerateJSON is the same as GenerateText for Anthropic (no special JSON mode)
func (a *AnthropicProvider) GenerateJSON(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	return a.GenerateText(ctx, prompt, systemPrompt)
}

func (o *OpenAIProvider) GetProviderName() string {
	return "openai"
}

func (o *OpenAIProvider) complete(ctx context.Context, prompt, systemPrompt string, jsonMode bool) (string, error) {
	if o.APIKey == "" {
		return "", ErrNoAPIKey
	}

	reqBody := map[string]interface{}{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"max_tokens": 4096,
	}
	if jsonMode {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": fmt.Sprintf("Bearer %s", o.APIKey)}
	if err := postJSON(ctx, o.Client, o.BaseURL+"/v1/chat/completions", headers, reqBody, &result); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}

// GenerateText is for free-form responses
func (o *OpenAIProvider) GenerateText(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	return o.complete(ctx, prompt, systemPrompt, false)
}

// GenerateJSON is for JSON-formatted responses (like quiz generation)
func (o *OpenAIProvider) GenerateJSON(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	return o.complete(ctx, prompt, systemPrompt, true)
}
