package docling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"docledger/internal/config"
	"docledger/internal/port"
)

// Client implements port.Converter against a docling-serve sidecar. The
// sidecar accepts a multipart upload and returns the document rendered as
// markdown together with the detected language.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a converter client from config.
func NewClient(cfg *config.ConverterConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// convertResponse models the sidecar's conversion result.
type convertResponse struct {
	Markdown string `json:"markdown"`
	Language string `json:"language"`
	Error    string `json:"error"`
}

func (c *Client) Convert(ctx context.Context, path string) (*port.ConvertOutput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copying file into request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling converter: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading converter response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("converter error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var out convertResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("unmarshaling converter response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("converter reported failure: %s", out.Error)
	}

	language := out.Language
	if language == "" {
		language = "Unknown"
	}
	return &port.ConvertOutput{Markdown: out.Markdown, Language: language}, nil
}
