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
	"time"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/kv"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
)

// ImageMetadataStore caches the last known-good image.
type ImageMetadataStore struct {
	kv     kv.KVStore
	clock  clock.Clock
	logger logger.Logger
}

func NewImageMetadataStore(store kv.KVStore, clk clock.Clock, log logger.Logger) *ImageMetadataStore {
	return &ImageMetadataStore{kv: store, clock: clk, logger: log}
}

// Get returns nil when nothing is cached.
func (s *ImageMetadataStore) Get(ctx context.Context) (*models.ImageMetadata, error) {
	return getJSON[models.ImageMetadata](ctx, s.kv, imageMetadataKey)
}

func (s *ImageMetadataStore) Watch(ctx context.Context) (<-chan *models.ImageMetadata, error) {
	return watchJSON[models.ImageMetadata](ctx, s.kv, imageMetadataKey, s.logger)
}

// Save stamps the entry with the current time and overwrites the cache.
func (s *ImageMetadataStore) Save(ctx context.Context, url string, refreshIntervalSecs *int64, httpStatusCode *int) error {
	meta := models.ImageMetadata{
		URL:                 url,
		RefreshIntervalSecs: refreshIntervalSecs,
		HTTPStatusCode:      httpStatusCode,
		Timestamp:           s.clock.Now().UnixMilli(),
	}

	if err := putJSON(ctx, s.kv, imageMetadataKey, &meta); err != nil {
		return err
	}

	s.logger.Debug().Str("url", url).Msg("Cached image metadata")

	return nil
}

// HasValidImageURL reports whether the cached image has not yet expired.
func (s *ImageMetadataStore) HasValidImageURL(ctx context.Context) (bool, error) {
	meta, err := s.Get(ctx)
	if err != nil {
		return false, err
	}

	return meta.IsValid(s.clock.Now()), nil
}

// TimeUntilExpiration is zero when nothing valid is cached.
func (s *ImageMetadataStore) TimeUntilExpiration(ctx context.Context) (time.Duration, error) {
	meta, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}

	return meta.TimeUntilExpiration(s.clock.Now()), nil
}

// WatchValidity re-evaluates validity whenever the cache changes.
func (s *ImageMetadataStore) WatchValidity(ctx context.Context) (<-chan bool, error) {
	metas, err := s.Watch(ctx)
	if err != nil {
		return nil, err
	}

	return mapChan(ctx, metas, func(m *models.ImageMetadata) bool {
		return m.IsValid(s.clock.Now())
	}), nil
}

// WatchTimeUntilExpiration re-evaluates the remaining lifetime whenever the cache changes.
func (s *ImageMetadataStore) WatchTimeUntilExpiration(ctx context.Context) (<-chan time.Duration, error) {
	metas, err := s.Watch(ctx)
	if err != nil {
		return nil, err
	}

	return mapChan(ctx, metas, func(m *models.ImageMetadata) time.Duration {
		return m.TimeUntilExpiration(s.clock.Now())
	}), nil
}

func (s *ImageMetadataStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, imageMetadataKey); err != nil {
		return fmt.Errorf("failed to clear image metadata: %w", err)
	}

	return nil
}
