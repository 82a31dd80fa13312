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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskguard/core/contracts"
)

func validTriage() contracts.TriageResult {
	return contracts.TriageResult{
		Category:   "Billing",
		Priority:   "High",
		Department: "Finance",
		Reasoning:  "Matched billing keywords in the title.",
	}
}

func TestRunFirstAttemptSucceeds(t *testing.T) {
	calls := 0
	out := Run(context.Background(), "Triage Agent", TriageRetries,
		func(ctx context.Context) (contracts.TriageResult, error) {
			calls++
			return validTriage(), nil
		},
		contracts.TriageContract{}, TriageFallback)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Billing", out.Category)
}

func TestRunRetriesOnError(t *testing.T) {
	calls := 0
	out := Run(context.Background(), "Triage Agent", TriageRetries,
		func(ctx context.Context) (contracts.TriageResult, error) {
			calls++
			if calls < 2 {
				return contracts.TriageResult{}, errors.New("transient")
			}
			return validTriage(), nil
		},
		contracts.TriageContract{}, TriageFallback)

	assert.Equal(t, 2, calls)
	assert.Equal(t, "Billing", out.Category)
}

func TestRunRetriesOnContractViolation(t *testing.T) {
	calls := 0
	out := Run(context.Background(), "Triage Agent", TriageRetries,
		func(ctx context.Context) (contracts.TriageResult, error) {
			calls++
			if calls < 3 {
				r := validTriage()
				r.Category = "Gardening"
				return r, nil
			}
			return validTriage(), nil
		},
		contracts.TriageContract{}, TriageFallback)

	assert.Equal(t, 3, calls)
	assert.Equal(t, "Billing", out.Category)
}

func TestRunExhaustionReturnsFallback(t *testing.T) {
	calls := 0
	out := Run(context.Background(), "Triage Agent", TriageRetries,
		func(ctx context.Context) (contracts.TriageResult, error) {
			calls++
			return contracts.TriageResult{}, errors.New("always fails")
		},
		contracts.TriageContract{}, TriageFallback)

	assert.Equal(t, TriageRetries+1, calls)
	assert.Equal(t, TriageFallback("Triage Agent"), out)

	// Fallback itself must be contract-valid.
	_, violations := contracts.TriageContract{}.Validate(out)
	assert.Empty(t, violations)
}

func TestRunAbsorbsPanics(t *testing.T) {
	calls := 0
	out := Run(context.Background(), "Risk Agent", RiskRetries,
		func(ctx context.Context) (contracts.RiskResult, error) {
			calls++
			panic("boom")
		},
		contracts.RiskContract{}, RiskFallback)

	assert.Equal(t, RiskRetries+1, calls)
	assert.Equal(t, 50, out.RiskScore)
	assert.Equal(t, "Medium", out.RiskLevel)
}

func TestRunReturnsNormalizedValue(t *testing.T) {
	out := Run(context.Background(), "Triage Agent", 0,
		func(ctx context.Context) (contracts.TriageResult, error) {
			r := validTriage()
			r.Reasoning = "  padded but long enough reasoning  "
			return r, nil
		},
		contracts.TriageContract{}, TriageFallback)

	assert.Equal(t, "padded but long enough reasoning", out.Reasoning)
}

func TestFallbacksAreContractValid(t *testing.T) {
	_, v := contracts.TriageContract{}.Validate(TriageFallback("Triage Agent"))
	assert.Empty(t, v)

	_, v = contracts.ComplianceContract{}.Validate(ComplianceFallback("Compliance Agent"))
	assert.Empty(t, v)

	_, v = contracts.RiskContract{}.Validate(RiskFallback("Risk Agent"))
	assert.Empty(t, v)
}

func TestFallbacksAreDeterministic(t *testing.T) {
	require.Equal(t, TriageFallback("Triage Agent"), TriageFallback("Triage Agent"))
	require.Equal(t, ComplianceFallback("Compliance Agent"), ComplianceFallback("Compliance Agent"))
	require.Equal(t, RiskFallback("Risk Agent"), RiskFallback("Risk Agent"))
}

func TestComplianceFallbackRequestsReview(t *testing.T) {
	out := ComplianceFallback("Compliance Agent")
	assert.Equal(t, "Needs_Info", out.Status)
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Issues[0], "manual review required")
}
