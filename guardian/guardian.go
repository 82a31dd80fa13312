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

// Package guardian implements the retry-then-deterministic-fallback wrapper
// around agent invocations. Every value returned from Run satisfies its
// contract; no error or panic ever crosses the Guardian boundary.
package guardian

import (
	"context"
	"log"

	"deskguard/core/contracts"
)

// Per-agent retry bounds. Asymmetric on purpose: compliance is rule-only
// and cheap to fall back, triage and risk may involve inference calls.
const (
	TriageRetries     = 2
	ComplianceRetries = 1
	RiskRetries       = 2
)

// Contract validates a candidate result, returning the normalized value and
// any field violations.
type Contract[T any] interface {
	Validate(T) (T, []contracts.Violation)
}

// Run invokes call up to maxRetries+1 times. A runtime error, a panic, or a
// contract violation each count as a failed attempt. The first attempt whose
// output validates is returned immediately (normalized); once attempts are
// exhausted the deterministic fallback for the result kind is returned.
func Run[T any](ctx context.Context, name string, maxRetries int, call func(ctx context.Context) (T, error), contract Contract[T], fallback func(name string) T) T {
	attempts := maxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := invoke(ctx, name, attempt, call)
		if err != nil {
			log.Printf("[Guardian] %s attempt %d/%d failed: %v", name, attempt, attempts, err)
			continue
		}

		validated, violations := contract.Validate(raw)
		if len(violations) == 0 {
			return validated
		}

		for _, v := range violations {
			log.Printf("[Guardian] %s attempt %d/%d rejected: %s", name, attempt, attempts, v)
		}
	}

	log.Printf("[Guardian] %s exhausted %d attempts - using safe fallback", name, attempts)
	return fallback(name)
}

// invoke runs a single attempt, converting a panic into a failed attempt.
func invoke[T any](ctx context.Context, name string, attempt int, call func(ctx context.Context) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Guardian] %s attempt %d panicked: %v", name, attempt, r)
			err = &PanicError{Agent: name, Value: r}
		}
	}()
	return call(ctx)
}

// PanicError wraps a recovered panic from an agent invocation.
type PanicError struct {
	Agent string
	Value interface{}
}

func (e *PanicError) Error() string {
	return "agent " + e.Agent + " panicked"
}
