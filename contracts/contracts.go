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

// Package contracts defines the typed result variants produced by the
// classification agents and the closed-set contracts each must satisfy.
// Every result that crosses the Guardian boundary has been validated
// against its contract; nothing downstream ever sees an out-of-enum value.
package contracts

import (
	"fmt"
	"strings"

	"deskguard/core/rules"
)

// Closed value sets. These are the only values a validated result may carry.
var (
	Categories  = []string{"Billing", "Technical", "Access", "Logistics", "HR", "Other"}
	Priorities  = []string{"Low", "Medium", "High"}
	Departments = []string{"Finance", "IT", "Operations", "Sales", "HR", "Support"}
	Statuses    = []string{"OK", "Needs_Info", "Blocked"}
	RiskLevels  = []string{"Low", "Medium", "High"}
)

// Free-text length bounds.
const (
	ReasoningMinLen      = 10
	ReasoningMaxLen      = 500
	RecommendationMinLen = 5
	ExplanationMinLen    = 10
	ExplanationMaxLen    = 500
)

// Violation describes a single contract violation on a candidate result.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

// TriageResult is the validated output of the Triage agent.
type TriageResult struct {
	Category   string `json:"category"`
	Priority   string `json:"priority"`
	Department string `json:"department"`
	Reasoning  string `json:"reasoning"`
	LLMUsed    bool   `json:"llm_used"`
}

// ComplianceResult is the validated output of the Compliance agent.
type ComplianceResult struct {
	Status           string   `json:"status"`
	Issues           []string `json:"issues"`
	Recommendation   string   `json:"recommendation"`
	ApprovalRequired bool     `json:"approval_required"`
}

// RiskResult is the validated output of the Risk agent.
type RiskResult struct {
	RiskScore   int      `json:"risk_score"`
	RiskLevel   string   `json:"risk_level"`
	ImpactAreas []string `json:"impact_areas"`
	Explanation string   `json:"explanation"`
}

// TriageContract validates TriageResult candidates.
type TriageContract struct{}

// Validate checks enums and reasoning length. It returns the normalized
// result (reasoning trimmed) and any field violations. It never panics.
func (TriageContract) Validate(r TriageResult) (TriageResult, []Violation) {
	var violations []Violation

	if !contains(Categories, r.Category) {
		violations = append(violations, Violation{"category", fmt.Sprintf("%q is not a valid category", r.Category)})
	}
	if !contains(Priorities, r.Priority) {
		violations = append(violations, Violation{"priority", fmt.Sprintf("%q is not a valid priority", r.Priority)})
	}
	if !contains(Departments, r.Department) {
		violations = append(violations, Violation{"department", fmt.Sprintf("%q is not a valid department", r.Department)})
	}

	r.Reasoning = strings.TrimSpace(r.Reasoning)
	if n := len(r.Reasoning); n < ReasoningMinLen || n > ReasoningMaxLen {
		violations = append(violations, Violation{"reasoning",
			fmt.Sprintf("length %d outside [%d, %d]", n, ReasoningMinLen, ReasoningMaxLen)})
	}

	return r, violations
}

// ComplianceContract validates ComplianceResult candidates.
type ComplianceContract struct{}

// Validate checks the status enum and recommendation length. A nil issue
// list is normalized to an empty one so callers can always range over it.
func (ComplianceContract) Validate(r ComplianceResult) (ComplianceResult, []Violation) {
	var violations []Violation

	if !contains(Statuses, r.Status) {
		violations = append(violations, Violation{"status", fmt.Sprintf("%q is not a valid status", r.Status)})
	}

	r.Recommendation = strings.TrimSpace(r.Recommendation)
	if len(r.Recommendation) < RecommendationMinLen {
		violations = append(violations, Violation{"recommendation",
			fmt.Sprintf("length %d below minimum %d", len(r.Recommendation), RecommendationMinLen)})
	}

	if r.Issues == nil {
		r.Issues = []string{}
	}

	return r, violations
}

// RiskContract validates RiskResult candidates. Beyond enum and range
// checks it enforces score/level alignment: the level must equal the one
// derived from the score thresholds.
type RiskContract struct{}

// Validate checks score range, level enum, score/level alignment, non-empty
// impact areas and explanation length.
func (RiskContract) Validate(r RiskResult) (RiskResult, []Violation) {
	var violations []Violation

	if r.RiskScore < 0 || r.RiskScore > 100 {
		violations = append(violations, Violation{"risk_score",
			fmt.Sprintf("%d outside [0, 100]", r.RiskScore)})
	}
	if !contains(RiskLevels, r.RiskLevel) {
		violations = append(violations, Violation{"risk_level", fmt.Sprintf("%q is not a valid risk level", r.RiskLevel)})
	} else if r.RiskScore >= 0 && r.RiskScore <= 100 {
		if expected := rules.LevelForScore(r.RiskScore); r.RiskLevel != expected {
			violations = append(violations, Violation{"risk_level",
				fmt.Sprintf("%q does not match score %d (expected %q)", r.RiskLevel, r.RiskScore, expected)})
		}
	}

	if len(r.ImpactAreas) == 0 {
		violations = append(violations, Violation{"impact_areas", "must not be empty"})
	}

	r.Explanation = strings.TrimSpace(r.Explanation)
	if n := len(r.Explanation); n < ExplanationMinLen || n > ExplanationMaxLen {
		violations = append(violations, Violation{"explanation",
			fmt.Sprintf("length %d outside [%d, %d]", n, ExplanationMinLen, ExplanationMaxLen)})
	}

	return r, violations
}

func contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
