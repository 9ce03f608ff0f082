package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Prompt is a system + user message pair.
type Prompt struct {
	System string
	User   string
}

// Generator is a text-generation capability that returns a JSON-shaped
// completion for a prompt.
type Generator interface {
	Complete(ctx context.Context, p Prompt) (string, error)
	Model() string
	Close()
}

// GeneratorConfig selects and configures a Generator.
type GeneratorConfig struct {
	Provider  string // upstage, openai or anthropic
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

const (
	upstageBaseURL = "https://api.upstage.ai/v1"
	upstageModel   = "solar-pro2"
)

// NewGenerator builds the Generator named by cfg.Provider.
func NewGenerator(cfg GeneratorConfig) (Generator, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "upstage", "solar":
		if cfg.BaseURL == "" {
			cfg.BaseURL = upstageBaseURL
		}
		if cfg.Model == "" {
			cfg.Model = upstageModel
		}
		return NewOpenAIGenerator(cfg)
	case "openai":
		return NewOpenAIGenerator(cfg)
	case "anthropic", "claude":
		return NewAnthropicGenerator(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: upstage, openai, anthropic)", cfg.Provider)
	}
}
