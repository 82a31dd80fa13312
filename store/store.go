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

// Package store provides the ticket persistence collaborator consumed by
// the orchestrator: read-before-process, write-after-aggregate.
package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTicketNotFound is returned when the referenced ticket does not exist.
// It is a soft workflow outcome for the orchestrator, never a crash.
var ErrTicketNotFound = errors.New("ticket not found")

// Ticket is a support request. Title and description are inputs; the
// remaining fields are outputs written by the analysis workflow.
type Ticket struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Department  string    `json:"department"`
	AIPriority  string    `json:"ai_priority"`
	AIReasoning string    `json:"ai_reasoning"`
	AIAnalysis  string    `json:"ai_analysis"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AnalysisFields are the ticket fields written after aggregation.
type AnalysisFields struct {
	Category    string
	Priority    string
	Department  string
	AIPriority  string
	AIReasoning string
	AIAnalysis  string
}

// TicketStore is the persistence interface the orchestrator depends on.
type TicketStore interface {
	Get(ctx context.Context, id int64) (*Ticket, error)
	Update(ctx context.Context, id int64, fields AnalysisFields) error
}

// TicketRepository extends TicketStore with creation, used by the caller
// layer; the core workflow itself never creates tickets.
type TicketRepository interface {
	TicketStore
	Create(ctx context.Context, title, description string) (*Ticket, error)
}

// MemoryStore is a thread-safe in-memory TicketRepository for tests and
// for running without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[int64]*Ticket
	nextID  int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[int64]*Ticket)}
}

// Create inserts a new ticket and returns a copy.
func (s *MemoryStore) Create(ctx context.Context, title, description string) (*Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now().UTC()
	t := &Ticket{
		ID:          s.nextID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tickets[t.ID] = t
	out := *t
	return &out, nil
}

// Get returns a copy of the ticket or ErrTicketNotFound.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	out := *t
	return &out, nil
}

// Update writes the analysis fields onto the ticket.
func (s *MemoryStore) Update(ctx context.Context, id int64, fields AnalysisFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return ErrTicketNotFound
	}
	t.Category = fields.Category
	t.Priority = fields.Priority
	t.Department = fields.Department
	t.AIPriority = fields.AIPriority
	t.AIReasoning = fields.AIReasoning
	t.AIAnalysis = fields.AIAnalysis
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a ticket. Used by tests to simulate a ticket vanishing
// mid-workflow.
func (s *MemoryStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tickets, id)
}
