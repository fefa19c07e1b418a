package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPClient is a Client backed by an Ollama-compatible /api/generate
// endpoint.
type HTTPClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewHTTPClient creates an HTTPClient against baseURL (e.g. http://localhost:11434).
func NewHTTPClient(baseURL, model string) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, model: model, client: &http.Client{}}
}

type generateReq struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	Stream    bool   `json:"stream"`
	NumPredic int    `json:"num_predict,omitempty"`
}

type generateResp struct {
	Response string `json:"response"`
}

// Complete calls the generate endpoint with streaming disabled and returns
// the full response text.
func (c *HTTPClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(generateReq{Model: c.model, Prompt: prompt, Stream: false, NumPredic: maxTokens})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: status %d", resp.StatusCode)
	}

	var result generateResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	return result.Response, nil
}
