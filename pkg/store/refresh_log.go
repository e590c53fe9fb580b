/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/carverauto/inkmirror/pkg/kv"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
)

// RefreshLogStore is a bounded, chronological history of refresh attempts.
type RefreshLogStore struct {
	kv         kv.KVStore
	logger     logger.Logger
	maxEntries int
	mu         sync.Mutex
}

func NewRefreshLogStore(store kv.KVStore, log logger.Logger) *RefreshLogStore {
	return &RefreshLogStore{kv: store, logger: log, maxEntries: models.MaxLogEntries}
}

// Append adds entry and evicts the oldest entries beyond the bound.
func (s *RefreshLogStore) Append(ctx context.Context, entry *models.RefreshLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Entries(ctx)
	if err != nil {
		return err
	}

	entries = append(entries, *entry)
	if overflow := len(entries) - s.maxEntries; overflow > 0 {
		entries = entries[overflow:]
	}

	return putJSON(ctx, s.kv, refreshLogKey, entries)
}

// Entries returns the log oldest first.
func (s *RefreshLogStore) Entries(ctx context.Context) ([]models.RefreshLogEntry, error) {
	entries, err := getJSON[[]models.RefreshLogEntry](ctx, s.kv, refreshLogKey)
	if err != nil {
		return nil, err
	}

	if entries == nil {
		return nil, nil
	}

	return *entries, nil
}

// Watch emits the full log after every change.
func (s *RefreshLogStore) Watch(ctx context.Context) (<-chan []models.RefreshLogEntry, error) {
	raw, err := watchJSON[[]models.RefreshLogEntry](ctx, s.kv, refreshLogKey, s.logger)
	if err != nil {
		return nil, err
	}

	return mapChan(ctx, raw, func(entries *[]models.RefreshLogEntry) []models.RefreshLogEntry {
		if entries == nil {
			return nil
		}

		return *entries
	}), nil
}

func (s *RefreshLogStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, refreshLogKey); err != nil {
		return fmt.Errorf("failed to clear refresh log: %w", err)
	}

	s.logger.Info().Msg("Cleared refresh log")

	return nil
}
