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
	"fmt"
	"log"

	"deskguard/core/contracts"
	"deskguard/core/llm"
	"deskguard/core/rules"
)

const riskSystemPrompt = `Analyze business risk. Respond with JSON:
{"impact_areas": ["area1", "area2"], "explanation": "why this is high risk"}`

// riskDescriptionLimit bounds the ticket text sent to inference.
const riskDescriptionLimit = 200

// RiskAgent scores business risk from rules and escalates to inference only
// for very high scores. Inference may augment impact areas and explanation;
// it can never overwrite the rule-computed score or level.
type RiskAgent struct {
	rules  *rules.Engine
	client llm.Client
}

// NewRiskAgent wires a risk agent from the shared collaborators.
func NewRiskAgent(engine *rules.Engine, client llm.Client) *RiskAgent {
	return &RiskAgent{rules: engine, client: client}
}

// riskCandidate is the raw shape expected from the inference service.
type riskCandidate struct {
	ImpactAreas []string `json:"impact_areas"`
	Explanation string   `json:"explanation"`
}

// Analyze computes the rule-based risk and, when flagged for review, asks
// inference for impact areas and an explanation. Any failure during that
// escalation silently keeps the rule-computed defaults; it is not surfaced
// as an agent failure.
func (a *RiskAgent) Analyze(ctx context.Context, title, description, priority string) (contracts.RiskResult, error) {
	signal := a.rules.CalculateRisk(description, priority)

	result := contracts.RiskResult{
		RiskScore:   signal.Score,
		RiskLevel:   signal.Level,
		ImpactAreas: []string{"General"},
		Explanation: "Risk evaluated by rules",
	}

	if signal.NeedsLLMReview {
		a.augmentFromInference(ctx, title, description, signal.Score, &result)
	}

	if len(result.ImpactAreas) == 0 {
		result.ImpactAreas = []string{"General Business"}
	}
	if len(result.Explanation) < contracts.ExplanationMinLen {
		result.Explanation += " (Automated risk score)"
	}
	if len(result.Explanation) > contracts.ExplanationMaxLen {
		result.Explanation = result.Explanation[:contracts.ExplanationMaxLen]
	}

	return result, nil
}

func (a *RiskAgent) augmentFromInference(ctx context.Context, title, description string, score int, result *contracts.RiskResult) {
	if len(description) > riskDescriptionLimit {
		description = description[:riskDescriptionLimit]
	}
	prompt := fmt.Sprintf("Analyze HIGH RISK ticket:\nTitle: %s\nDescription: %s\nScore: %d",
		title, description, score)

	response, err := a.client.Complete(ctx, prompt, llm.QueryOptions{SystemPrompt: riskSystemPrompt})
	if err != nil {
		log.Printf("[Risk] Inference review unavailable, keeping rule defaults: %v", err)
		return
	}

	var candidate riskCandidate
	if err := llm.DecodeResponse(response, &candidate); err != nil {
		log.Printf("[Risk] Inference review unparseable, keeping rule defaults: %v", err)
		return
	}

	result.ImpactAreas = candidate.ImpactAreas
	result.Explanation = candidate.Explanation
	if result.Explanation == "" {
		result.Explanation = "High risk detected"
	}
}
