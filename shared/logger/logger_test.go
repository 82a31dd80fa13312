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

package logger

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"strings"
	"testing"
)

// TestNew tests logger initialization
func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		component      string
		instanceID     string
		expectedComp   string
		expectedInstID string
	}{
		{
			name:           "with instance ID set",
			component:      "test-component",
			instanceID:     "instance-123",
			expectedComp:   "test-component",
			expectedInstID: "instance-123",
		},
		{
			name:           "without instance ID",
			component:      "orchestrator",
			instanceID:     "",
			expectedComp:   "orchestrator",
			expectedInstID: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.instanceID != "" {
				t.Setenv("INSTANCE_ID", tt.instanceID)
			} else {
				if err := os.Unsetenv("INSTANCE_ID"); err != nil {
					t.Fatalf("Failed to unset INSTANCE_ID: %v", err)
				}
			}

			logger := New(tt.component)

			if logger.Component != tt.expectedComp {
				t.Errorf("Expected component %s, got %s", tt.expectedComp, logger.Component)
			}

			if logger.InstanceID != tt.expectedInstID {
				t.Errorf("Expected instance ID %s, got %s", tt.expectedInstID, logger.InstanceID)
			}

			if logger.Container == "" {
				t.Error("Expected container to be set from hostname")
			}
		})
	}
}

// TestLogOutput verifies the JSON structure of emitted log entries
func TestLogOutput(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer log.SetOutput(os.Stderr)

	logger := New("workflow")
	logger.Info("run-abc", "Ticket analyzed", map[string]interface{}{
		"ticket_id": 7,
	})

	line := strings.TrimSpace(buf.String())
	var entry LogEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v (%s)", err, line)
	}

	if entry.Level != INFO {
		t.Errorf("Expected level INFO, got %s", entry.Level)
	}
	if entry.Component != "workflow" {
		t.Errorf("Expected component workflow, got %s", entry.Component)
	}
	if entry.RunID != "run-abc" {
		t.Errorf("Expected run_id run-abc, got %s", entry.RunID)
	}
	if entry.Message != "Ticket analyzed" {
		t.Errorf("Unexpected message: %s", entry.Message)
	}
	if entry.Fields["ticket_id"] != float64(7) {
		t.Errorf("Expected ticket_id field 7, got %v", entry.Fields["ticket_id"])
	}
}

// TestErrorWithErr verifies the error text is carried as a field
func TestErrorWithErr(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer log.SetOutput(os.Stderr)

	logger := New("guardian")
	logger.ErrorWithErr("", "Attempt failed", os.ErrDeadlineExceeded, nil)

	if !strings.Contains(buf.String(), "deadline") {
		t.Errorf("Expected error text in output, got %s", buf.String())
	}
}
