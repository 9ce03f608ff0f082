package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const anthropicBaseURL = "https://api.anthropic.com/v1"

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

func NewAnthropicGenerator(cfg GeneratorConfig) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5-20250929"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropicBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	return &AnthropicGenerator{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *AnthropicGenerator) Model() string { return g.model }

// Complete sends the prompt and returns the concatenated text blocks.
func (g *AnthropicGenerator) Complete(ctx context.Context, p Prompt) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    p.System,
		Messages:  []anthropicMessage{{Role: "user", Content: p.User}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", g.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", &GenerationError{Provider: "anthropic", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &GenerationError{Provider: "anthropic", StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &GenerationError{Provider: "anthropic", StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &GenerationError{Provider: "anthropic", StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	if apiResp.Error != nil {
		return "", &GenerationError{
			Provider:   "anthropic",
			StatusCode: resp.StatusCode,
			Message:    apiResp.Error.Type + ": " + apiResp.Error.Message,
		}
	}

	var sb strings.Builder
	for _, c := range apiResp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &GenerationError{Provider: "anthropic", StatusCode: resp.StatusCode, Message: "empty completion"}
	}
	return sb.String(), nil
}

// Close releases idle connections.
func (g *AnthropicGenerator) Close() {
	g.httpClient.CloseIdleConnections()
}
