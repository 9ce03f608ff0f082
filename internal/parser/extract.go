package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// DefaultMinChars is the shortest extracted text accepted as a document.
const DefaultMinChars = 10

// Extractor picks a parser for an upload and enforces the minimum text
// length. When Remote is set it is tried first and local parsing is the
// fallback.
type Extractor struct {
	Remote      Parser
	PDFFallback bool
	MinChars    int
	Log         *slog.Logger
}

// Extract returns normalized text or an error wrapping ErrUnsupportedType
// or ErrNoText.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType, filename string) (string, error) {
	local, localErr := Select(mimeType, filename, e.PDFFallback)

	var text string
	var err error
	switch {
	case e.Remote != nil:
		text, err = e.Remote.Parse(ctx, bytes.NewReader(data), filename)
		if err != nil && localErr == nil {
			e.logger().Warn("remote parse failed, using local parser", "file", filename, "error", err)
			text, err = local.Parse(ctx, bytes.NewReader(data), filename)
		}
	case localErr != nil:
		return "", localErr
	default:
		text, err = local.Parse(ctx, bytes.NewReader(data), filename)
	}
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", filename, err)
	}

	minChars := e.MinChars
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	if utf8.RuneCountInString(text) < minChars {
		return "", ErrNoText
	}
	return text, nil
}

func (e *Extractor) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}
