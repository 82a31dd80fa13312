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
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO tickets").
		WithArgs("title", "desc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(7), now, now))

	s := NewPostgresStoreWithDB(db)
	ticket, err := s.Create(context.Background(), "title", "desc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), ticket.ID)
	assert.Equal(t, "title", ticket.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "category", "priority", "department",
		"ai_priority", "ai_reasoning", "ai_analysis", "created_at", "updated_at",
	}).AddRow(int64(3), "t", "d", "Billing", "High", "Finance", "High", "r", "{}", now, now)

	mock.ExpectQuery("SELECT (.+) FROM tickets WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(rows)

	s := NewPostgresStoreWithDB(db)
	ticket, err := s.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Billing", ticket.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM tickets WHERE id").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	s := NewPostgresStoreWithDB(db)
	_, err = s.Get(context.Background(), 404)
	assert.True(t, errors.Is(err, ErrTicketNotFound))
}

func TestPostgresUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE tickets").
		WithArgs(int64(3), "Billing", "High", "Finance", "High", "narrative", "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgresStoreWithDB(db)
	err = s.Update(context.Background(), 3, AnalysisFields{
		Category:    "Billing",
		Priority:    "High",
		Department:  "Finance",
		AIPriority:  "High",
		AIReasoning: "narrative",
		AIAnalysis:  "{}",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE tickets").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewPostgresStoreWithDB(db)
	err = s.Update(context.Background(), 9, AnalysisFields{})
	assert.True(t, errors.Is(err, ErrTicketNotFound))
}
