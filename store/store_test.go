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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := NewMemoryStore()

	created, err := s.Create(context.Background(), "broken printer", "it jams constantly")
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "broken printer", got.Title)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrTicketNotFound))
}

func TestMemoryStoreUpdate(t *testing.T) {
	s := NewMemoryStore()
	created, err := s.Create(context.Background(), "t", "d")
	require.NoError(t, err)

	fields := AnalysisFields{
		Category:    "Billing",
		Priority:    "High",
		Department:  "Finance",
		AIPriority:  "High",
		AIReasoning: "narrative",
		AIAnalysis:  `{"triage":{}}`,
	}
	require.NoError(t, s.Update(context.Background(), created.ID, fields))

	got, err := s.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Billing", got.Category)
	assert.Equal(t, "narrative", got.AIReasoning)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func TestMemoryStoreUpdateMissing(t *testing.T) {
	s := NewMemoryStore()
	err := s.Update(context.Background(), 5, AnalysisFields{})
	assert.True(t, errors.Is(err, ErrTicketNotFound))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	created, err := s.Create(context.Background(), "original", "d")
	require.NoError(t, err)

	created.Title = "mutated"
	got, err := s.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	created, err := s.Create(context.Background(), "t", "d")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Update(context.Background(), created.ID, AnalysisFields{Category: "Technical"})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Get(context.Background(), created.ID)
		}()
	}
	wg.Wait()

	got, err := s.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Technical", got.Category)
}
