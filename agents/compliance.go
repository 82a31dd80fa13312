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

package agents

import (
	"context"

	"deskguard/core/contracts"
	"deskguard/core/rules"
)

// ComplianceAgent checks a ticket against documentation and policy rules.
// Rule-only: it never escalates to inference.
type ComplianceAgent struct {
	rules *rules.Engine
}

// NewComplianceAgent wires a compliance agent from the shared rule engine.
func NewComplianceAgent(engine *rules.Engine) *ComplianceAgent {
	return &ComplianceAgent{rules: engine}
}

// Analyze runs the compliance rules for the triaged category and derives
// the recommendation from the resulting status.
func (a *ComplianceAgent) Analyze(ctx context.Context, title, description, category string) (contracts.ComplianceResult, error) {
	signal := a.rules.CheckCompliance(category, description)

	result := contracts.ComplianceResult{
		Status:           signal.Status,
		Issues:           signal.Issues,
		ApprovalRequired: signal.ApprovalRequired,
	}

	switch signal.Status {
	case "Blocked":
		result.Recommendation = "Reject processing immediately and notify security."
	case "Needs_Info":
		result.Recommendation = "Request missing details from user."
	default:
		result.Recommendation = "Proceed with standard workflow."
	}

	return result, nil
}
