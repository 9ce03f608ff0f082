package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultRemoteURL   = "https://api.upstage.ai/v1/document-digitization"
	defaultRemoteModel = "document-parse"
	maxRemoteResponse  = 32 << 20
)

// RemoteParser sends the document to a hosted document-parse service that
// returns HTML, then normalizes that HTML into lines.
type RemoteParser struct {
	URL        string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

func NewRemoteParser(url, apiKey string, timeout time.Duration) *RemoteParser {
	if url == "" {
		url = DefaultRemoteURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &RemoteParser{
		URL:        url,
		APIKey:     apiKey,
		Model:      defaultRemoteModel,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type remoteResponse struct {
	API     string `json:"api"`
	Model   string `json:"model"`
	Content struct {
		HTML string `json:"html"`
	} `json:"content"`
}

func (p *RemoteParser) Parse(ctx context.Context, r io.Reader, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("document", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("copy document: %w", err)
	}
	fields := map[string]string{
		"output_formats": `["html"]`,
		"coordinates":    "false",
		"model":          p.Model,
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return "", fmt.Errorf("build form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("document parse request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteResponse))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("document parse API error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out remoteResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return NormalizeHTML(out.Content.HTML), nil
}
