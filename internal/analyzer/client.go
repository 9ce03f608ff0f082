package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/docuproof/internal/document"
	"golang.org/x/time/rate"
)

// ClientConfig tunes a Client.
type ClientConfig struct {
	RequestsPerSecond float64       // 0 disables rate limiting
	MaxRetries        int           // attempts per section; 0 means DefaultMaxRetries
	SectionTimeout    time.Duration // deadline per section; 0 means none
}

// Client analyzes one chunk at a time against a Generator.
type Client struct {
	gen            Generator
	limiter        *rate.Limiter
	maxRetries     int
	sectionTimeout time.Duration
	backoff        func(attempt int) time.Duration
	log            *slog.Logger

	Stats *Stats
}

func NewClient(gen Generator, cfg ClientConfig, log *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		gen:            gen,
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     cfg.MaxRetries,
		sectionTimeout: cfg.SectionTimeout,
		backoff:        Backoff,
		log:            log,
		Stats:          NewStats(time.Hour),
	}
}

// Model names the underlying generator model.
func (c *Client) Model() string {
	return c.gen.Model()
}

// AnalyzeSection runs one chunk through the generator with the whole
// document as context. Unparseable completions come back as degraded
// results, never as errors; the only error is a *GenerationError.
func (c *Client) AnalyzeSection(ctx context.Context, chunk document.Chunk, fullText string, level document.Level) (document.SectionResult, error) {
	if c.sectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.sectionTimeout)
		defer cancel()
	}

	prompt := BuildPrompt(chunk, fullText, level)
	raw, err := c.complete(ctx, prompt)
	if err != nil {
		c.Stats.RecordFailure()
		return document.SectionResult{}, err
	}

	outcome := ParseResponse(raw)
	c.Stats.RecordOutcome(outcome.Kind)
	if outcome.Kind == Degraded {
		c.log.Warn("unparseable completion", "section", chunk.Title, "reason", outcome.Reason)
	}
	return Normalize(chunk, outcome), nil
}

func (c *Client) complete(ctx context.Context, p Prompt) (string, error) {
	var lastErr error
	for attempt := range c.maxRetries {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &GenerationError{Provider: "limiter", Err: err}
		}

		start := time.Now()
		raw, err := c.gen.Complete(ctx, p)
		c.Stats.RecordLatency(time.Since(start))
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == c.maxRetries-1 {
			break
		}

		c.Stats.RecordRetry()
		c.log.Warn("retryable generation error", "attempt", attempt, "error", err)
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return "", &GenerationError{Provider: "client", Err: ctx.Err()}
		}
	}

	var genErr *GenerationError
	if !errors.As(lastErr, &genErr) {
		lastErr = &GenerationError{Provider: "client", Err: lastErr}
	}
	return "", lastErr
}
