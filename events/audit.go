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

package events

import (
	"fmt"
	"sync"
	"time"
)

// AuditEntry is a single audit trail record derived from a workflow event.
type AuditEntry struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	Category    string    `json:"category"`
	Actor       string    `json:"actor"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditTrail keeps a bounded in-memory record of observed workflow events.
type AuditTrail struct {
	mu      sync.RWMutex
	entries []AuditEntry
	limit   int
}

// NewAuditTrail creates a trail retaining at most limit entries.
func NewAuditTrail(limit int) *AuditTrail {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &AuditTrail{limit: limit}
}

// Record appends an entry, dropping the oldest past the limit.
func (t *AuditTrail) Record(entry AuditEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if len(t.entries) > t.limit {
		t.entries = t.entries[len(t.entries)-t.limit:]
	}
}

// Entries returns the most recent limit entries, oldest to newest.
func (t *AuditTrail) Entries(limit int) []AuditEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if limit <= 0 || limit > len(t.entries) {
		limit = len(t.entries)
	}
	out := make([]AuditEntry, limit)
	copy(out, t.entries[len(t.entries)-limit:])
	return out
}

// RegisterAuditTrail subscribes the trail to the workflow milestone events.
// Subscription is performed explicitly at application wiring time, never as
// an import side effect.
func RegisterAuditTrail(ch *Channel, trail *AuditTrail) {
	record := func(e Event) {
		trail.Record(AuditEntry{
			EventID:     e.ID,
			EventType:   e.Type,
			Category:    "AI_ACTION",
			Actor:       "System",
			Description: describe(e),
			CreatedAt:   e.Timestamp,
		})
	}
	ch.Subscribe(TypeAnalysisStarted, record)
	ch.Subscribe(TypeAnalysisComplete, record)
}

func describe(e Event) string {
	ticketID := e.Payload["ticket_id"]
	switch e.Type {
	case TypeAnalysisStarted:
		return fmt.Sprintf("AI analysis started for ticket %v", ticketID)
	case TypeAnalysisComplete:
		return fmt.Sprintf("AI analysis completed for ticket %v (category=%v, risk_score=%v)",
			ticketID, e.Payload["category"], e.Payload["risk_score"])
	default:
		return e.Type
	}
}
