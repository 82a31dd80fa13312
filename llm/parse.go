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
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON strips an optional fenced code block (with or without a
// language tag) from an inference response and returns the inner text.
func ExtractJSON(response string) string {
	text := strings.TrimSpace(response)

	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
	} else {
		return text
	}

	if end := strings.Index(text, "```"); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}

// DecodeResponse extracts the JSON object from a possibly fenced response
// and unmarshals it into v. Decode failure is a normal validation-failure
// path for callers, never a panic.
func DecodeResponse(response string, v interface{}) error {
	text := ExtractJSON(response)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("malformed inference response: %w", err)
	}
	return nil
}
