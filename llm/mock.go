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
	"sync"
)

// MockClient is a scriptable Client for tests and for running the service
// without a reachable inference endpoint. Responses are consumed in order;
// the last one repeats once the script is exhausted.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
}

// NewMockClient returns a mock that replies with the given responses.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{responses: responses}
}

// NewFailingMockClient returns a mock whose calls fail with the given errors.
func NewFailingMockClient(errs ...error) *MockClient {
	return &MockClient{errs: errs}
}

func (m *MockClient) Name() string    { return "mock" }
func (m *MockClient) IsHealthy() bool { return true }

// Calls reports how many times Complete was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockClient) Complete(ctx context.Context, prompt string, opts QueryOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++

	if len(m.errs) > 0 {
		if i >= len(m.errs) {
			i = len(m.errs) - 1
		}
		return "", m.errs[i]
	}
	if len(m.responses) == 0 {
		return "", ErrEmptyResponse
	}
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}
