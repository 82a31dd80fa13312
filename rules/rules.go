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

package rules

import (
	"regexp"
	"strings"
)

// Classification methods reported in signals.
const (
	MethodRegexRule     = "regex_rule"
	MethodBillingRule   = "billing_rule"
	MethodHeuristicRule = "heuristic_rule"
	MethodDefault       = "default"
	MethodNone          = "none"
)

// Risk scoring constants. Scores are clamped to [0, 100]; the level
// thresholds here are the single source of truth for score/level alignment.
const (
	riskBaseScore      = 30
	riskHighPriority   = 40
	riskMediumPriority = 20
	riskVIPBonus       = 15
	riskProdBonus      = 20

	RiskHighThreshold   = 70
	RiskMediumThreshold = 40
	riskLLMReviewAbove  = 80
)

// CategorySignal is the result of rule-based category classification.
type CategorySignal struct {
	Category   string  `json:"category"`
	Department string  `json:"department"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// PrioritySignal is the result of rule-based priority classification.
type PrioritySignal struct {
	Priority   string  `json:"priority"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// ComplianceSignal is the result of rule-based compliance checking.
type ComplianceSignal struct {
	Status           string   `json:"status"`
	Issues           []string `json:"issues"`
	Method           string   `json:"method"`
	ApprovalRequired bool     `json:"approval_required"`
}

// RiskSignal is the result of heuristic risk scoring.
type RiskSignal struct {
	Score          int    `json:"risk_score"`
	Level          string `json:"risk_level"`
	Method         string `json:"method"`
	NeedsLLMReview bool   `json:"needs_llm_review"`
}

// categoryRule binds a category name to its detection pattern. Rules are
// evaluated in slice order; the first match wins.
type categoryRule struct {
	category string
	pattern  *regexp.Regexp
}

// Engine is the deterministic, pattern-based classifier. All patterns are
// compiled once in NewEngine; the engine is read-only afterwards and safe
// for unsynchronized concurrent use.
type Engine struct {
	categories  []categoryRule
	departments map[string]string

	highPriority   *regexp.Regexp
	billingOverdue *regexp.Regexp
	lowPriority    *regexp.Regexp

	financialRef    *regexp.Regexp
	identityRef     *regexp.Regexp
	policyViolation *regexp.Regexp

	vipKeyword *regexp.Regexp
}

// NewEngine compiles all classification patterns and returns a ready engine.
func NewEngine() *Engine {
	return &Engine{
		// Category priority order is fixed: Billing, Access, Technical,
		// Logistics. First match wins regardless of input length.
		categories: []categoryRule{
			{"Billing", regexp.MustCompile(`(?i)\b(invoice|payment|billing|refund|charge|cost|price)\b`)},
			{"Access", regexp.MustCompile(`(?i)\b(password|login|access|vpn|permission|account|auth)\b`)},
			{"Technical", regexp.MustCompile(`(?i)\b(error|bug|crash|outage|down|server|failed|slow)\b`)},
			{"Logistics", regexp.MustCompile(`(?i)\b(shipping|delivery|warehouse|shipment|track)\b`)},
		},
		departments: map[string]string{
			"Billing":   "Finance",
			"Access":    "IT",
			"Technical": "IT",
			"Logistics": "Operations",
		},

		highPriority:   regexp.MustCompile(`(?i)\b(urgent|critical|emergency|production|down|outage|vip|blocked)\b`),
		billingOverdue: regexp.MustCompile(`(?i)\b(overdue|late|penalty)\b`),
		lowPriority:    regexp.MustCompile(`(?i)\b(question|how to|clarification|info|help)\b`),

		financialRef:    regexp.MustCompile(`(?i)(invoice|#|po|amount|\$)`),
		identityRef:     regexp.MustCompile(`(?i)(@|email|user|id|employee)`),
		policyViolation: regexp.MustCompile(`(?i)(share password|bypass approval|override|skip review)`),

		vipKeyword: regexp.MustCompile(`(?i)\b(vip|enterprise|ceo|director)\b`),
	}
}

// ClassifyCategory tests the ordered category patterns against text. A rule
// match carries a fixed 0.95 confidence; no match returns an empty category
// with 0.0 confidence.
func (e *Engine) ClassifyCategory(text string) CategorySignal {
	for _, rule := range e.categories {
		if rule.pattern.MatchString(text) {
			return CategorySignal{
				Category:   rule.category,
				Department: e.departments[rule.category],
				Confidence: 0.95,
				Method:     MethodRegexRule,
			}
		}
	}
	return CategorySignal{Confidence: 0.0, Method: MethodNone}
}

// ClassifyPriority derives a priority for text. The billing-specific overdue
// rule is evaluated before the generic low-priority check so overdue billing
// tickets cannot be demoted by a "question"-style phrasing.
func (e *Engine) ClassifyPriority(text, category string) PrioritySignal {
	if e.highPriority.MatchString(text) {
		return PrioritySignal{Priority: "High", Confidence: 0.90, Method: MethodRegexRule}
	}
	if category == "Billing" && e.billingOverdue.MatchString(text) {
		return PrioritySignal{Priority: "High", Confidence: 0.85, Method: MethodBillingRule}
	}
	if e.lowPriority.MatchString(text) {
		return PrioritySignal{Priority: "Low", Confidence: 0.80, Method: MethodRegexRule}
	}
	return PrioritySignal{Priority: "Medium", Confidence: 0.60, Method: MethodDefault}
}

// CheckCompliance validates a ticket description against category-specific
// documentation rules and the policy-violation blocklist. The policy
// violation pattern is evaluated last so it always overrides any prior
// status with Blocked + approval_required.
func (e *Engine) CheckCompliance(category, description string) ComplianceSignal {
	issues := []string{}
	status := "OK"

	if category == "Billing" && !e.financialRef.MatchString(description) {
		issues = append(issues, "Missing invoice/PO number or amount")
		status = "Needs_Info"
	}

	if category == "Access" && !e.identityRef.MatchString(description) {
		issues = append(issues, "Missing user email or ID")
		status = "Needs_Info"
	}

	if e.policyViolation.MatchString(description) {
		issues = append(issues, "POLICY VIOLATION: Security breach attempt detected")
		status = "Blocked"
	}

	return ComplianceSignal{
		Status:           status,
		Issues:           issues,
		Method:           MethodRegexRule,
		ApprovalRequired: status == "Blocked",
	}
}

// CalculateRisk scores a ticket from its triaged priority and description.
// A score above 80 flags the ticket for LLM review.
func (e *Engine) CalculateRisk(description, priority string) RiskSignal {
	score := riskBaseScore

	switch priority {
	case "High":
		score += riskHighPriority
	case "Medium":
		score += riskMediumPriority
	}

	if e.vipKeyword.MatchString(description) {
		score += riskVIPBonus
	}
	if strings.Contains(strings.ToLower(description), "production") {
		score += riskProdBonus
	}

	if score > 100 {
		score = 100
	}

	return RiskSignal{
		Score:          score,
		Level:          LevelForScore(score),
		Method:         MethodHeuristicRule,
		NeedsLLMReview: score > riskLLMReviewAbove,
	}
}

// LevelForScore maps a risk score to its level. Used both by the scoring
// heuristic and by contract validation, so the two can never disagree.
func LevelForScore(score int) string {
	switch {
	case score >= RiskHighThreshold:
		return "High"
	case score >= RiskMediumThreshold:
		return "Medium"
	default:
		return "Low"
	}
}
