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

package display

import (
	"context"
	"errors"
	"strings"

	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
)

const (
	// FakeImageURL is returned by every fetch while the fake API is enabled.
	FakeImageURL      = "https://inkmirror.local/mock/display.png"
	fakeImageFileName = "mock-display.png"
	fakeRefreshRate   = 600
)

type fetchFunc func(ctx context.Context, cfg *models.DeviceConfig) (*apiResponse, *models.HTTPResponseMetadata, error)

// DisplayRepository implements Repository on top of Client.
type DisplayRepository struct {
	client     *Client
	cache      ImageCache
	logger     logger.Logger
	useFakeAPI bool
}

// RepositoryOption configures a DisplayRepository.
type RepositoryOption func(*DisplayRepository)

// WithFakeAPI makes every fetch return a fixed synthetic image without network access.
func WithFakeAPI(enabled bool) RepositoryOption {
	return func(r *DisplayRepository) {
		r.useFakeAPI = enabled
	}
}

func NewRepository(client *Client, cache ImageCache, log logger.Logger, opts ...RepositoryOption) *DisplayRepository {
	r := &DisplayRepository{
		client: client,
		cache:  cache,
		logger: log,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *DisplayRepository) GetCurrentDisplayData(ctx context.Context, cfg *models.DeviceConfig) *models.DisplayInfo {
	return r.get(ctx, cfg, r.client.CurrentScreen)
}

func (r *DisplayRepository) GetNextDisplayData(ctx context.Context, cfg *models.DeviceConfig) *models.DisplayInfo {
	return r.get(ctx, cfg, r.client.NextDisplay)
}

func (r *DisplayRepository) get(ctx context.Context, cfg *models.DeviceConfig, fetch fetchFunc) *models.DisplayInfo {
	if r.useFakeAPI {
		r.logger.Debug().Msg("Fake API enabled, returning synthetic display data")

		return fakeDisplayInfo(cfg.Type)
	}

	resp, meta, err := fetch(ctx, cfg)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.Message == setupSentinel {
			return setupRequiredInfo(cfg.Type, "", meta)
		}

		return failureInfo(cfg.Type, describeError(err), meta)
	}

	if resp.setupRequired() {
		return setupRequiredInfo(cfg.Type, resp.Filename, meta)
	}

	if !resp.ok() {
		return failureInfo(cfg.Type, describeError(&APIError{Status: resp.Status, Message: resp.Error}), meta)
	}

	info := &models.DisplayInfo{
		HTTPStatus:             models.HTTPStatusOK,
		DeviceType:             cfg.Type,
		ImageURL:               resp.ImageURL,
		ImageFileName:          resp.Filename,
		RefreshIntervalSeconds: resp.RefreshRate,
		HTTPResponseMetadata:   meta,
	}

	if strings.TrimSpace(info.ImageURL) != "" {
		status := models.HTTPStatusOK
		if err := r.cache.Save(ctx, info.ImageURL, info.RefreshIntervalSeconds, &status); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to cache image metadata")
		}
	}

	return info
}

func failureInfo(deviceType models.DeviceType, msg string, meta *models.HTTPResponseMetadata) *models.DisplayInfo {
	return &models.DisplayInfo{
		HTTPStatus:             models.HTTPStatusFailed,
		DeviceType:             deviceType,
		Error:                  msg,
		RefreshIntervalSeconds: models.Int64Ptr(0),
		HTTPResponseMetadata:   meta,
	}
}

func setupRequiredInfo(deviceType models.DeviceType, filename string, meta *models.HTTPResponseMetadata) *models.DisplayInfo {
	info := failureInfo(deviceType, SetupRequiredMessage, meta)
	info.ImageFileName = filename
	info.SetupRequired = true

	return info
}

func fakeDisplayInfo(deviceType models.DeviceType) *models.DisplayInfo {
	return &models.DisplayInfo{
		HTTPStatus:             models.HTTPStatusOK,
		DeviceType:             deviceType,
		ImageURL:               FakeImageURL,
		ImageFileName:          fakeImageFileName,
		RefreshIntervalSeconds: models.Int64Ptr(fakeRefreshRate),
	}
}

var _ Repository = (*DisplayRepository)(nil)
