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

package guardian

import (
	"fmt"

	"deskguard/core/contracts"
)

// Safe fallbacks returned when all retries are exhausted. Each is a fixed,
// contract-valid value for its result kind; none is derived from any failed
// output. The agent name only appears inside the free-text field, so two
// fallbacks for the same kind are always structurally identical.

// TriageFallback routes the ticket to IT at medium priority for manual review.
func TriageFallback(name string) contracts.TriageResult {
	return contracts.TriageResult{
		Category:   "Technical",
		Priority:   "Medium",
		Department: "IT",
		Reasoning: fmt.Sprintf("Guardian fallback: %s output validation failed after retries. "+
			"Defaulted to safe values for manual review.", name),
		LLMUsed: false,
	}
}

// ComplianceFallback requests manual review rather than asserting a pass.
func ComplianceFallback(name string) contracts.ComplianceResult {
	return contracts.ComplianceResult{
		Status:         "Needs_Info",
		Issues:         []string{fmt.Sprintf("%s validation failed - manual review required", name)},
		Recommendation: "Review ticket manually due to agent validation failure.",
	}
}

// RiskFallback reports a medium, unknown-impact risk pending assessment.
func RiskFallback(name string) contracts.RiskResult {
	return contracts.RiskResult{
		RiskScore:   50,
		RiskLevel:   "Medium",
		ImpactAreas: []string{"Unknown"},
		Explanation: fmt.Sprintf("%s failed validation. Defaulted to medium risk pending manual assessment.", name),
	}
}
