package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint in
// JSON mode. The Upstage Solar API is served through it as well.
type OpenAIGenerator struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
	maxTokens  int
}

func NewOpenAIGenerator(cfg GeneratorConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	clientConfig.HTTPClient = httpClient

	return &OpenAIGenerator{
		client:     openai.NewClientWithConfig(clientConfig),
		httpClient: httpClient,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
	}, nil
}

func (g *OpenAIGenerator) Model() string { return g.model }

// Complete sends the prompt and returns the first choice's content.
func (g *OpenAIGenerator) Complete(ctx context.Context, p Prompt) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens: g.maxTokens,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &GenerationError{Provider: "openai", StatusCode: http.StatusOK, Message: "empty completion"}
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &GenerationError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &GenerationError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error(), Err: err}
	}
	return &GenerationError{Provider: "openai", Err: err}
}

// Close releases idle connections.
func (g *OpenAIGenerator) Close() {
	g.httpClient.CloseIdleConnections()
}
