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

// DeviceConfigStore holds the single device registration.
type DeviceConfigStore struct {
	kv     kv.KVStore
	logger logger.Logger
	mu     sync.Mutex
}

func NewDeviceConfigStore(store kv.KVStore, log logger.Logger) *DeviceConfigStore {
	return &DeviceConfigStore{kv: store, logger: log}
}

// Get returns nil when no device has been configured.
func (s *DeviceConfigStore) Get(ctx context.Context) (*models.DeviceConfig, error) {
	return getJSON[models.DeviceConfig](ctx, s.kv, deviceConfigKey)
}

// Watch emits the current config and every subsequent change. nil means cleared.
func (s *DeviceConfigStore) Watch(ctx context.Context) (<-chan *models.DeviceConfig, error) {
	return watchJSON[models.DeviceConfig](ctx, s.kv, deviceConfigKey, s.logger)
}

// Save overwrites the stored config wholesale.
func (s *DeviceConfigStore) Save(ctx context.Context, cfg *models.DeviceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := putJSON(ctx, s.kv, deviceConfigKey, cfg); err != nil {
		return err
	}

	s.logger.Info().
		Str("device_type", cfg.Type.String()).
		Str("api_base_url", cfg.APIBaseURL).
		Str("api_access_token", cfg.MaskedToken()).
		Msg("Saved device config")

	return nil
}

// SaveRefreshRate updates only the refresh rate of the stored config.
func (s *DeviceConfigStore) SaveRefreshRate(ctx context.Context, secs int64) error {
	if secs < 0 {
		return fmt.Errorf("%w: %d", errNegativeRate, secs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Get(ctx)
	if err != nil {
		return err
	}

	if cfg == nil {
		return ErrNoDeviceConfig
	}

	cfg.RefreshRateSecs = models.Int64Ptr(secs)

	return putJSON(ctx, s.kv, deviceConfigKey, cfg)
}

// HasToken reports whether a config with a non-blank access token is stored.
func (s *DeviceConfigStore) HasToken(ctx context.Context) (bool, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return false, err
	}

	return cfg.HasToken(), nil
}

// Clear removes the stored config.
func (s *DeviceConfigStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, deviceConfigKey); err != nil {
		return fmt.Errorf("failed to clear device config: %w", err)
	}

	s.logger.Info().Msg("Cleared device config")

	return nil
}
