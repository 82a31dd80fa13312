// Copyright 2025 DeskGuard
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package llm provides the inference client used for agent escalation.
// The production implementation targets an Ollama-compatible HTTP endpoint;
// a mock client is provided for tests and for running without inference.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrTimeout indicates the inference request exceeded the client timeout.
// A timed-out remote call may keep executing server-side; the caller simply
// abandons its result.
var ErrTimeout = errors.New("inference request timed out")

// ErrEmptyResponse indicates the service answered with no content.
var ErrEmptyResponse = errors.New("inference returned empty response")

// Default sampling options: low temperature and bounded output/context for
// speed and determinism.
const (
	DefaultTimeout     = 15 * time.Second
	defaultTemperature = 0.1
	defaultMaxTokens   = 200
	defaultContextSize = 2048
	defaultTopP        = 0.9
)

// QueryOptions contains sampling options for a completion request.
// Zero values are replaced with the package defaults.
type QueryOptions struct {
	SystemPrompt string  `json:"system_prompt"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
	ContextSize  int     `json:"context_size"`
	TopP         float64 `json:"top_p"`
}

func (o QueryOptions) withDefaults() QueryOptions {
	if o.Temperature == 0 {
		o.Temperature = defaultTemperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.ContextSize == 0 {
		o.ContextSize = defaultContextSize
	}
	if o.TopP == 0 {
		o.TopP = defaultTopP
	}
	return o
}

// Client is the interface agents use to escalate to the inference service.
type Client interface {
	Name() string
	Complete(ctx context.Context, prompt string, opts QueryOptions) (string, error)
	IsHealthy() bool
}

// OllamaClient calls an Ollama-compatible /api/generate endpoint.
type OllamaClient struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllamaClient creates a client for the given endpoint and model.
// A zero timeout falls back to DefaultTimeout.
func NewOllamaClient(endpoint, model string, timeout time.Duration) *OllamaClient {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "mistral"
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &OllamaClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *OllamaClient) Name() string { return "ollama" }

// IsHealthy reports whether the endpoint answers its root route.
func (c *OllamaClient) IsHealthy() bool {
	resp, err := c.client.Get(c.endpoint + "/")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	System  string                 `json:"system,omitempty"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete sends a blocking generation request and returns the raw response
// text. Timeouts are reported as ErrTimeout so callers can distinguish them
// from transport errors; both are retryable.
func (c *OllamaClient) Complete(ctx context.Context, prompt string, opts QueryOptions) (string, error) {
	opts = opts.withDefaults()

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: opts.SystemPrompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
			"num_ctx":     opts.ContextSize,
			"top_p":       opts.TopP,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("inference transport error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("inference service returned %d: %s", resp.StatusCode, string(msg))
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", fmt.Errorf("decode inference response: %w", err)
	}

	text := strings.TrimSpace(gen.Response)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
