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

// Package display fetches rendered screens from the remote display service.
package display

import (
	"context"

	"github.com/carverauto/inkmirror/pkg/models"
)

//go:generate mockgen -destination=mock_display.go -package=display github.com/carverauto/inkmirror/pkg/display Repository,ImageCache

// Repository returns the canonical DisplayInfo for a device. It never returns
// an error; failures are encoded in the result.
type Repository interface {
	// GetCurrentDisplayData returns the screen the device is showing now.
	GetCurrentDisplayData(ctx context.Context, cfg *models.DeviceConfig) *models.DisplayInfo
	// GetNextDisplayData advances the playlist and returns the new screen.
	GetNextDisplayData(ctx context.Context, cfg *models.DeviceConfig) *models.DisplayInfo
}

// ImageCache stores the last known-good image.
type ImageCache interface {
	Save(ctx context.Context, url string, refreshIntervalSecs *int64, httpStatusCode *int) error
}
