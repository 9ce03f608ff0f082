// Package parser converts uploaded documents into line-based plain text
// that the chunker can segment. Headings are kept on their own lines so
// the header rules can key off them.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrNoText          = errors.New("no readable text content found in document")
)

// Parser converts raw document bytes into normalized text.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, pdfFallback bool) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: pdfFallback}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupportedType, ext)
	}
}

// ForMIME returns the parser for a declared MIME type. Parameters such as
// charset are ignored.
func ForMIME(mimeType string, pdfFallback bool) (Parser, error) {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}
	switch mt {
	case "text/plain":
		return &TextParser{}, nil
	case "text/markdown", "text/x-markdown":
		return &MarkdownParser{}, nil
	case "text/csv":
		return &CSVParser{}, nil
	case "text/html", "application/xhtml+xml":
		return &HTMLParser{}, nil
	case "application/pdf":
		return &PDFParser{FallbackPdftotext: pdfFallback}, nil
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, mt)
	}
}

// Select prefers the declared MIME type and falls back to the extension.
// Generic types like application/octet-stream always fall back.
func Select(mimeType, filename string, pdfFallback bool) (Parser, error) {
	if mimeType != "" && !strings.HasPrefix(mimeType, "application/octet-stream") {
		if p, err := ForMIME(mimeType, pdfFallback); err == nil {
			return p, nil
		}
	}
	return ForFile(filename, pdfFallback)
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
