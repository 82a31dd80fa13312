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

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"deskguard/core/agents"
	"deskguard/core/contracts"
	"deskguard/core/events"
	"deskguard/core/guardian"
	"deskguard/core/metrics"
	"deskguard/core/shared/logger"
	"deskguard/core/store"
)

// Workflow states. Agent-level failures are absorbed by Guardian or by the
// branch defaults at the join, so there is no failed terminal state; the
// only non-completed outcome is a ticket vanishing before aggregation.
const (
	StateStarted         = "started"
	StateTriageDone      = "triage_done"
	StateParallelRunning = "parallel_running"
	StateAggregated      = "aggregated"
	StatePersisted       = "persisted"
	StateCompleted       = "completed"
	StateTicketNotFound  = "ticket_not_found"
)

// Metadata carries per-run timing and the rule-vs-LLM outcome.
type Metadata struct {
	RunID           string  `json:"run_id"`
	TotalSeconds    float64 `json:"total_seconds"`
	TriageSeconds   float64 `json:"triage_seconds"`
	ParallelSeconds float64 `json:"parallel_seconds"`
	LLMUsed         bool    `json:"llm_used"`
}

// AnalysisResult is the aggregate outcome of one workflow run. It is owned
// by the run, immutable once constructed, and always contract-valid.
type AnalysisResult struct {
	TicketID   int64                      `json:"ticket_id"`
	Status     string                     `json:"status"`
	Triage     contracts.TriageResult     `json:"triage"`
	Compliance contracts.ComplianceResult `json:"compliance"`
	Risk       contracts.RiskResult       `json:"risk"`
	Metadata   Metadata                   `json:"metadata"`
}

// Engine sequences the three agents for each ticket: Triage first, then
// Compliance and Risk concurrently, then join, aggregate, persist, record
// metrics and emit events. RunWorkflow never returns an error or panics.
type Engine struct {
	triage     *agents.TriageAgent
	compliance *agents.ComplianceAgent
	risk       *agents.RiskAgent
	tickets    store.TicketStore
	channel    *events.Channel
	metrics    *metrics.Accumulator
	log        *logger.Logger
}

// NewEngine wires the orchestrator from its collaborators.
func NewEngine(triage *agents.TriageAgent, compliance *agents.ComplianceAgent, risk *agents.RiskAgent,
	tickets store.TicketStore, channel *events.Channel, accumulator *metrics.Accumulator) *Engine {
	return &Engine{
		triage:     triage,
		compliance: compliance,
		risk:       risk,
		tickets:    tickets,
		channel:    channel,
		metrics:    accumulator,
		log:        logger.New("orchestrator"),
	}
}

// RunWorkflow analyzes one ticket end to end and returns a complete,
// contract-valid AnalysisResult. A missing ticket is reported through the
// Status field, never as an error.
func (e *Engine) RunWorkflow(ctx context.Context, ticketID int64, title, description string) *AnalysisResult {
	runID := uuid.New().String()
	start := time.Now()
	state := StateStarted

	e.log.Info(runID, "Workflow started", map[string]interface{}{
		"ticket_id": ticketID,
		"state":     state,
	})
	e.channel.Publish(events.TypeAnalysisStarted, map[string]interface{}{
		"run_id":    runID,
		"ticket_id": ticketID,
		"title":     title,
		"timestamp": start.UTC().Format(time.RFC3339),
	})

	// Step 1: Triage. Must complete before the fan-out, since Compliance
	// needs its category and Risk needs its priority.
	triageStart := time.Now()
	triage := guardian.Run(ctx, "Triage Agent", guardian.TriageRetries,
		func(ctx context.Context) (contracts.TriageResult, error) {
			return e.triage.Analyze(ctx, title, description)
		},
		contracts.TriageContract{}, guardian.TriageFallback)
	triageElapsed := time.Since(triageStart)
	state = StateTriageDone
	e.log.Debug(runID, "Triage complete", map[string]interface{}{
		"state":    state,
		"category": triage.Category,
		"llm_used": triage.LLMUsed,
	})

	// Step 2: Compliance and Risk fan-out. Each branch is Guardian-wrapped;
	// a branch failing past its Guardian is replaced at the join by a
	// coarser branch-local default.
	state = StateParallelRunning
	e.log.Debug(runID, "Running compliance and risk branches", map[string]interface{}{"state": state})
	parallelStart := time.Now()
	compliance, risk := e.runParallel(ctx, runID, title, description, triage)
	parallelElapsed := time.Since(parallelStart)

	result := &AnalysisResult{
		TicketID:   ticketID,
		Triage:     triage,
		Compliance: compliance,
		Risk:       risk,
	}

	// Step 3: Aggregate and persist through the ticket store.
	ticket, err := e.tickets.Get(ctx, ticketID)
	switch {
	case errors.Is(err, store.ErrTicketNotFound):
		state = StateTicketNotFound
		e.log.Warn(runID, "Ticket missing at aggregation, skipping persist", map[string]interface{}{
			"ticket_id": ticketID,
		})
	case err != nil:
		// Treat any other store failure like a vanished ticket: soft
		// outcome, workflow still completes.
		state = StateTicketNotFound
		e.log.ErrorWithErr(runID, "Ticket store read failed", err, map[string]interface{}{
			"ticket_id": ticketID,
		})
	default:
		state = StateAggregated
		e.log.Debug(runID, "Results aggregated", map[string]interface{}{"state": state})
		e.persist(ctx, runID, ticket.ID, result)
		state = StatePersisted
	}

	// Step 4: Metrics.
	total := time.Since(start)
	e.metrics.RecordWorkflow(triage.LLMUsed, total)

	result.Metadata = Metadata{
		RunID:           runID,
		TotalSeconds:    round2(total.Seconds()),
		TriageSeconds:   round2(triageElapsed.Seconds()),
		ParallelSeconds: round2(parallelElapsed.Seconds()),
		LLMUsed:         triage.LLMUsed,
	}
	if state == StateTicketNotFound {
		result.Status = StateTicketNotFound
	} else {
		result.Status = StateCompleted
	}

	e.channel.Publish(events.TypeAnalysisComplete, map[string]interface{}{
		"run_id":                 runID,
		"ticket_id":              ticketID,
		"execution_time_seconds": result.Metadata.TotalSeconds,
		"llm_used":               triage.LLMUsed,
		"category":               triage.Category,
		"priority":               triage.Priority,
		"risk_score":             risk.RiskScore,
		"status":                 result.Status,
	})
	e.log.InfoWithDuration(runID, "Workflow completed", float64(total.Milliseconds()), map[string]interface{}{
		"ticket_id": ticketID,
		"status":    result.Status,
		"category":  triage.Category,
	})

	return result
}

// runParallel executes the Compliance and Risk branches concurrently and
// joins on both. Each branch recovers its own panic into the branch-local
// default, so the join itself cannot fail.
func (e *Engine) runParallel(ctx context.Context, runID, title, description string, triage contracts.TriageResult) (contracts.ComplianceResult, contracts.RiskResult) {
	var (
		wg         sync.WaitGroup
		compliance contracts.ComplianceResult
		risk       contracts.RiskResult
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error(runID, "Compliance branch failed past Guardian", map[string]interface{}{
					"panic": fmt.Sprint(r),
				})
				compliance = complianceBranchDefault(r)
			}
		}()
		compliance = guardian.Run(ctx, "Compliance Agent", guardian.ComplianceRetries,
			func(ctx context.Context) (contracts.ComplianceResult, error) {
				return e.compliance.Analyze(ctx, title, description, triage.Category)
			},
			contracts.ComplianceContract{}, guardian.ComplianceFallback)
	}()

	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error(runID, "Risk branch failed past Guardian", map[string]interface{}{
					"panic": fmt.Sprint(r),
				})
				risk = riskBranchDefault(r)
			}
		}()
		risk = guardian.Run(ctx, "Risk Agent", guardian.RiskRetries,
			func(ctx context.Context) (contracts.RiskResult, error) {
				return e.risk.Analyze(ctx, title, description, triage.Priority)
			},
			contracts.RiskContract{}, guardian.RiskFallback)
	}()

	wg.Wait()
	return compliance, risk
}

// persist builds the combined narrative and structured analysis and writes
// them through the ticket store. A write failure is logged and absorbed.
func (e *Engine) persist(ctx context.Context, runID string, ticketID int64, result *AnalysisResult) {
	narrative := result.Triage.Reasoning + "\n\n"
	if len(result.Compliance.Issues) > 0 {
		narrative += fmt.Sprintf("[Compliance] Found %d issues.\n", len(result.Compliance.Issues))
	} else {
		narrative += "[Compliance] All checks passed.\n"
	}
	narrative += fmt.Sprintf("[Risk Analysis] Score: %d/100 (%s)", result.Risk.RiskScore, result.Risk.RiskLevel)

	analysis, err := json.Marshal(map[string]interface{}{
		"triage":     result.Triage,
		"compliance": result.Compliance,
		"risk":       result.Risk,
	})
	if err != nil {
		e.log.ErrorWithErr(runID, "Analysis marshal failed", err, nil)
		return
	}

	err = e.tickets.Update(ctx, ticketID, store.AnalysisFields{
		Category:    result.Triage.Category,
		Priority:    result.Triage.Priority,
		Department:  result.Triage.Department,
		AIPriority:  result.Triage.Priority,
		AIReasoning: narrative,
		AIAnalysis:  string(analysis),
	})
	if err != nil {
		e.log.ErrorWithErr(runID, "Ticket update failed", err, map[string]interface{}{
			"ticket_id": ticketID,
		})
	}
}

// Branch-local defaults, deliberately coarser than the Guardian fallbacks:
// they exist only as defense-in-depth for a branch failing past its own
// Guardian boundary.

func complianceBranchDefault(cause interface{}) contracts.ComplianceResult {
	return contracts.ComplianceResult{
		Status:         "OK",
		Issues:         []string{fmt.Sprintf("Agent error: %v", cause)},
		Recommendation: "Manual review",
	}
}

func riskBranchDefault(cause interface{}) contracts.RiskResult {
	return contracts.RiskResult{
		RiskScore:   50,
		RiskLevel:   "Medium",
		ImpactAreas: []string{"Unknown"},
		Explanation: fmt.Sprintf("Risk assessment failed: %v", cause),
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
