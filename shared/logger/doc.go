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

/*
Package logger provides structured JSON logging for DeskGuard components.

Each log entry is written to stdout as single-line JSON containing the
timestamp (RFC3339Nano), level, component name, instance/container
identifiers, an optional workflow run ID for correlation, the message and
custom fields:

	log := logger.New("orchestrator")
	log.Info(runID, "Workflow completed", map[string]interface{}{
	    "ticket_id": 42,
	})

Logger instances are safe for concurrent use from multiple goroutines.
*/
package logger
