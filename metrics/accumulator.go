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

// Package metrics accumulates process-wide workflow counters and derives
// read-only snapshots. Counters use atomic increments so concurrent
// workflows never lose updates; Prometheus mirrors are fed alongside.
package metrics

import (
	"sync/atomic"
	"time"
)

// Fixed per-call unit costs used for the derived cost estimate.
const (
	ruleCallCostUSD = 0.0001
	llmCallCostUSD  = 0.01
)

// Accumulator holds the process-wide counters. Mutated only through
// RecordWorkflow and Reset.
type Accumulator struct {
	triageCalls        atomic.Int64
	complianceCalls    atomic.Int64
	riskCalls          atomic.Int64
	llmCalls           atomic.Int64
	ruleOnlyCalls      atomic.Int64
	parallelExecutions atomic.Int64
	analysisNanos      atomic.Int64
	resetAtNanos       atomic.Int64
}

// Snapshot is a derived, read-only view computed on demand. It is never
// persisted as its own entity.
type Snapshot struct {
	TriageCalls        int64     `json:"triage_calls"`
	ComplianceCalls    int64     `json:"compliance_calls"`
	RiskCalls          int64     `json:"risk_calls"`
	LLMCalls           int64     `json:"llm_calls"`
	RuleOnlyCalls      int64     `json:"rule_only_calls"`
	ParallelExecutions int64     `json:"parallel_executions"`
	TotalAnalysisTime  float64   `json:"total_analysis_time_seconds"`
	LLMUsagePercent    float64   `json:"llm_usage_percent"`
	RuleOnlyPercent    float64   `json:"rule_only_percent"`
	AvgAnalysisSeconds float64   `json:"avg_analysis_seconds"`
	EstimatedCostUSD   float64   `json:"estimated_cost_usd"`
	UptimeSeconds      float64   `json:"uptime_seconds"`
	LastReset          time.Time `json:"last_reset"`
}

// NewAccumulator creates an accumulator with the reset clock started.
func NewAccumulator() *Accumulator {
	a := &Accumulator{}
	a.resetAtNanos.Store(time.Now().UnixNano())
	return a
}

// RecordWorkflow records one completed workflow run: one call per agent,
// the rule-vs-LLM split from the triage outcome, one parallel execution
// and the run's wall-clock time.
func (a *Accumulator) RecordWorkflow(llmUsed bool, elapsed time.Duration) {
	a.triageCalls.Add(1)
	a.complianceCalls.Add(1)
	a.riskCalls.Add(1)
	if llmUsed {
		a.llmCalls.Add(1)
	} else {
		a.ruleOnlyCalls.Add(1)
	}
	a.parallelExecutions.Add(1)
	a.analysisNanos.Add(elapsed.Nanoseconds())

	recordPrometheus(llmUsed, elapsed)
}

// Snapshot computes the derived view from the current counter values.
func (a *Accumulator) Snapshot() Snapshot {
	triage := a.triageCalls.Load()
	llmCalls := a.llmCalls.Load()
	ruleOnly := a.ruleOnlyCalls.Load()
	totalNanos := a.analysisNanos.Load()
	resetAt := time.Unix(0, a.resetAtNanos.Load())

	s := Snapshot{
		TriageCalls:        triage,
		ComplianceCalls:    a.complianceCalls.Load(),
		RiskCalls:          a.riskCalls.Load(),
		LLMCalls:           llmCalls,
		RuleOnlyCalls:      ruleOnly,
		ParallelExecutions: a.parallelExecutions.Load(),
		TotalAnalysisTime:  time.Duration(totalNanos).Seconds(),
		UptimeSeconds:      time.Since(resetAt).Seconds(),
		LastReset:          resetAt.UTC(),
	}

	if workflows := llmCalls + ruleOnly; workflows > 0 {
		s.LLMUsagePercent = 100 * float64(llmCalls) / float64(workflows)
		s.RuleOnlyPercent = 100 * float64(ruleOnly) / float64(workflows)
	}
	if triage > 0 {
		s.AvgAnalysisSeconds = time.Duration(totalNanos / triage).Seconds()
	}

	// Every workflow issues three agent calls; LLM-escalated runs add one
	// inference call on top of the rule work.
	ruleUnits := s.TriageCalls + s.ComplianceCalls + s.RiskCalls
	s.EstimatedCostUSD = float64(ruleUnits)*ruleCallCostUSD + float64(llmCalls)*llmCallCostUSD

	return s
}

// Reset zeroes all counters and restarts the uptime clock.
func (a *Accumulator) Reset() {
	a.triageCalls.Store(0)
	a.complianceCalls.Store(0)
	a.riskCalls.Store(0)
	a.llmCalls.Store(0)
	a.ruleOnlyCalls.Store(0)
	a.parallelExecutions.Store(0)
	a.analysisNanos.Store(0)
	a.resetAtNanos.Store(time.Now().UnixNano())
}
