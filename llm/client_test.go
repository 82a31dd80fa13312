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

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClientComplete(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": `{"category": "Billing"}`,
			"done":     true,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "mistral", 5*time.Second)
	out, err := c.Complete(context.Background(), "classify this", QueryOptions{SystemPrompt: "you are a classifier"})
	require.NoError(t, err)
	assert.Equal(t, `{"category": "Billing"}`, out)

	assert.Equal(t, "mistral", got.Model)
	assert.Equal(t, "classify this", got.Prompt)
	assert.Equal(t, "you are a classifier", got.System)
	assert.False(t, got.Stream)
	assert.Equal(t, 0.1, got.Options["temperature"])
	assert.Equal(t, float64(200), got.Options["num_predict"])
	assert.Equal(t, float64(2048), got.Options["num_ctx"])
	assert.Equal(t, 0.9, got.Options["top_p"])
}

func TestOllamaClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "mistral", 20*time.Millisecond)
	_, err := c.Complete(context.Background(), "slow", QueryOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestOllamaClientEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"response": "   ", "done": true})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "mistral", time.Second)
	_, err := c.Complete(context.Background(), "x", QueryOptions{})
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestOllamaClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "mistral", time.Second)
	_, err := c.Complete(context.Background(), "x", QueryOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose before fence", "Sure, here you go:\n```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"unterminated fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"surrounding whitespace", "  \n {\"a\": 1} \n ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, ExtractJSON(tt.in))
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	var v struct {
		Category string `json:"category"`
	}
	err := DecodeResponse("```json\n{\"category\": \"Access\"}\n```", &v)
	require.NoError(t, err)
	assert.Equal(t, "Access", v.Category)

	err = DecodeResponse("not json at all", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed inference response")
}

func TestMockClientScript(t *testing.T) {
	m := NewMockClient("first", "second")

	out, err := m.Complete(context.Background(), "p", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	out, _ = m.Complete(context.Background(), "p", QueryOptions{})
	assert.Equal(t, "second", out)

	// Last response repeats.
	out, _ = m.Complete(context.Background(), "p", QueryOptions{})
	assert.Equal(t, "second", out)
	assert.Equal(t, 3, m.Calls())
}

func TestFailingMockClient(t *testing.T) {
	boom := errors.New("boom")
	m := NewFailingMockClient(boom)
	_, err := m.Complete(context.Background(), "p", QueryOptions{})
	assert.Equal(t, boom, err)
}
