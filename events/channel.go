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

// Package events implements the in-process publish/subscribe channel used
// to observe workflow milestones. Delivery is synchronous in the caller's
// goroutine; history is bounded and non-persistent.
package events

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Workflow event types.
const (
	TypeAnalysisStarted  = "AI_ANALYSIS_STARTED"
	TypeAnalysisComplete = "AI_ANALYSIS_COMPLETE"
)

// DefaultHistoryLimit bounds the retained event history; the oldest records
// are dropped first.
const DefaultHistoryLimit = 1000

// Event is a single published record. Events are appended, never mutated.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// Handler receives published events. Handlers run synchronously in the
// publisher's goroutine; a panicking handler is recovered and logged and
// never stops delivery to the remaining handlers.
type Handler func(Event)

// Channel is a lightweight in-process event channel. Safe for concurrent
// Subscribe/Publish/Recent.
type Channel struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	history  []Event
	limit    int
}

// NewChannel creates a channel with the given history limit; zero or
// negative means DefaultHistoryLimit.
func NewChannel(historyLimit int) *Channel {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Channel{
		handlers: make(map[string][]Handler),
		limit:    historyLimit,
	}
}

// Subscribe registers a handler for an event type. Handlers for the same
// type run in registration order.
func (c *Channel) Subscribe(eventType string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = append(c.handlers[eventType], h)
}

// Publish appends a timestamped record to the history and invokes each
// registered handler synchronously. Publish never propagates a handler
// failure to the caller.
func (c *Channel) Publish(eventType string, payload map[string]interface{}) Event {
	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	c.mu.Lock()
	c.history = append(c.history, event)
	if len(c.history) > c.limit {
		c.history = c.history[len(c.history)-c.limit:]
	}
	handlers := make([]Handler, len(c.handlers[eventType]))
	copy(handlers, c.handlers[eventType])
	c.mu.Unlock()

	for _, h := range handlers {
		c.deliver(h, event)
	}
	return event
}

func (c *Channel) deliver(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Events] Handler for %s panicked: %v", event.Type, r)
		}
	}()
	h(event)
}

// Recent returns the most recent limit records, oldest to newest within
// that window.
func (c *Channel) Recent(limit int) []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if limit <= 0 || limit > len(c.history) {
		limit = len(c.history)
	}
	out := make([]Event, limit)
	copy(out, c.history[len(c.history)-limit:])
	return out
}
