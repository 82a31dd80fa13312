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

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore is the production TicketRepository backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the database, ensures the tickets table
// exists and returns the store.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open ticket database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostgresStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ticket tables: %w", err)
	}
	return s, nil
}

// NewPostgresStoreWithDB wraps an existing connection; used by tests.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) createTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			ai_priority TEXT NOT NULL DEFAULT '',
			ai_reasoning TEXT NOT NULL DEFAULT '',
			ai_analysis TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Create inserts a new ticket.
func (s *PostgresStore) Create(ctx context.Context, title, description string) (*Ticket, error) {
	t := &Ticket{Title: title, Description: description}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tickets (title, description) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		title, description,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
	return t, nil
}

// Get fetches a ticket by ID, mapping a missing row to ErrTicketNotFound.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*Ticket, error) {
	t := &Ticket{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, category, priority, department,
		        ai_priority, ai_reasoning, ai_analysis, created_at, updated_at
		 FROM tickets WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority, &t.Department,
		&t.AIPriority, &t.AIReasoning, &t.AIAnalysis, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select ticket %d: %w", id, err)
	}
	return t, nil
}

// Update writes the analysis fields in a single statement.
func (s *PostgresStore) Update(ctx context.Context, id int64, fields AnalysisFields) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets
		 SET category = $2, priority = $3, department = $4,
		     ai_priority = $5, ai_reasoning = $6, ai_analysis = $7,
		     updated_at = NOW()
		 WHERE id = $1`,
		id, fields.Category, fields.Priority, fields.Department,
		fields.AIPriority, fields.AIReasoning, fields.AIAnalysis)
	if err != nil {
		return fmt.Errorf("update ticket %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTicketNotFound
	}
	return nil
}
