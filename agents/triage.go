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

// Package agents implements the Triage, Compliance and Risk agents. Each
// agent is a pure function of its inputs plus the shared rule engine and
// inference client; raw candidates are validated by the Guardian wrapper
// before they reach the orchestrator.
package agents

import (
	"context"
	"fmt"
	"log"

	"deskguard/core/contracts"
	"deskguard/core/llm"
	"deskguard/core/rules"
)

const triageSystemPrompt = `You are a ticket classifier. Respond ONLY with JSON:
{"category": "Billing|Technical|Access|Logistics|HR|Other", "priority": "Low|Medium|High", "department": "Finance|IT|Operations|Sales|HR|Support", "reasoning": "brief explanation"}`

// DefaultConfidenceThreshold is the rule confidence below which Triage
// escalates to the inference service.
const DefaultConfidenceThreshold = 0.8

// TriageConfig controls the escalation policy.
type TriageConfig struct {
	// ConfidenceThreshold: both the category and priority rule confidences
	// must reach it to skip inference. Zero means the default.
	ConfidenceThreshold float64
	// AlwaysEscalate forces the inference path even when rules are
	// confident. Off by default; rule-first is the cost-saving intent.
	AlwaysEscalate bool
}

// TriageAgent classifies a ticket's category, priority and department using
// rules first and escalating to inference when rule confidence is low.
type TriageAgent struct {
	rules  *rules.Engine
	client llm.Client
	cfg    TriageConfig
}

// NewTriageAgent wires a triage agent from the shared collaborators.
func NewTriageAgent(engine *rules.Engine, client llm.Client, cfg TriageConfig) *TriageAgent {
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	return &TriageAgent{rules: engine, client: client, cfg: cfg}
}

// triageCandidate is the raw shape expected from the inference service.
type triageCandidate struct {
	Category   string `json:"category"`
	Priority   string `json:"priority"`
	Department string `json:"department"`
	Reasoning  string `json:"reasoning"`
}

// Analyze produces a raw triage candidate. A transport, timeout or decode
// failure is returned as an error so the Guardian wrapper can retry.
func (a *TriageAgent) Analyze(ctx context.Context, title, description string) (contracts.TriageResult, error) {
	text := title + " " + description

	cat := a.rules.ClassifyCategory(text)
	pri := a.rules.ClassifyPriority(text, cat.Category)

	escalate := a.cfg.AlwaysEscalate ||
		cat.Confidence < a.cfg.ConfidenceThreshold ||
		pri.Confidence < a.cfg.ConfidenceThreshold

	if !escalate {
		dept := cat.Department
		if dept == "" {
			dept = "Support"
		}
		return contracts.TriageResult{
			Category:   cat.Category,
			Priority:   pri.Priority,
			Department: dept,
			Reasoning:  fmt.Sprintf("Rule match: %s (confidence %.2f)", cat.Method, cat.Confidence),
			LLMUsed:    false,
		}, nil
	}

	log.Printf("[Triage] Rules uncertain (cat=%.2f pri=%.2f) - escalating to %s",
		cat.Confidence, pri.Confidence, a.client.Name())

	prompt := fmt.Sprintf("Classify:\nTitle: %s\nDescription: %s", title, description)
	response, err := a.client.Complete(ctx, prompt, llm.QueryOptions{SystemPrompt: triageSystemPrompt})
	if err != nil {
		return contracts.TriageResult{}, err
	}

	var candidate triageCandidate
	if err := llm.DecodeResponse(response, &candidate); err != nil {
		return contracts.TriageResult{}, err
	}

	result := sanitizeTriage(candidate)
	result.LLMUsed = true
	return result, nil
}

// sanitizeTriage coerces out-of-enum inference output to defined defaults
// and enforces the reasoning length bounds, so a cooperative model response
// never trips the contract.
func sanitizeTriage(c triageCandidate) contracts.TriageResult {
	r := contracts.TriageResult{
		Category:   c.Category,
		Priority:   c.Priority,
		Department: c.Department,
		Reasoning:  c.Reasoning,
	}

	if !inSet(contracts.Categories, r.Category) {
		r.Category = "Other"
	}
	if !inSet(contracts.Departments, r.Department) {
		r.Department = "Support"
	}
	if !inSet(contracts.Priorities, r.Priority) {
		r.Priority = "Medium"
	}

	if r.Reasoning == "" {
		r.Reasoning = "AI analysis provided."
	}
	if len(r.Reasoning) < contracts.ReasoningMinLen {
		r.Reasoning += " (Automated classification)"
	}
	if len(r.Reasoning) > contracts.ReasoningMaxLen {
		r.Reasoning = r.Reasoning[:contracts.ReasoningMaxLen]
	}

	return r
}

func inSet(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
