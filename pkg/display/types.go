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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	currentScreenPath = "/current_screen"
	nextDisplayPath   = "/display"

	// setupSentinel is how the remote API marks a device that still needs provisioning.
	setupSentinel = "setup-logo"
)

// flexInt64 decodes a JSON number or a numeric string. The display
// endpoint reports refresh_rate as a string on some server versions.
type flexInt64 struct {
	Value *int64
}

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		f.Value = nil
		return nil
	}

	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			f.Value = nil
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", errInvalidRefreshRate, raw)
	}

	n := int64(v)
	f.Value = &n

	return nil
}

// currentScreenResponse is the body of GET {base}/current_screen.
type currentScreenResponse struct {
	Status      int       `json:"status"`
	RefreshRate flexInt64 `json:"refresh_rate"`
	ImageURL    string    `json:"image_url"`
	Filename    string    `json:"filename"`
	RenderedAt  *int64    `json:"rendered_at,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// displayResponse is the body of GET {base}/display.
type displayResponse struct {
	Status          int       `json:"status"`
	ImageURL        string    `json:"image_url"`
	Filename        string    `json:"filename"`
	ImageName       string    `json:"image_name"`
	RefreshRate     flexInt64 `json:"refresh_rate"`
	SpecialFunction string    `json:"special_function,omitempty"`
	ResetFirmware   bool      `json:"reset_firmware,omitempty"`
	UpdateFirmware  bool      `json:"update_firmware,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// apiResponse is the shape both endpoints are normalised into.
type apiResponse struct {
	Status      int
	ImageURL    string
	Filename    string
	RefreshRate *int64
	Error       string
}

func (r *currentScreenResponse) normalize() *apiResponse {
	return &apiResponse{
		Status:      r.Status,
		ImageURL:    r.ImageURL,
		Filename:    r.Filename,
		RefreshRate: r.RefreshRate.Value,
		Error:       r.Error,
	}
}

func (r *displayResponse) normalize() *apiResponse {
	filename := r.Filename
	if filename == "" {
		filename = r.ImageName
	}

	return &apiResponse{
		Status:      r.Status,
		ImageURL:    r.ImageURL,
		Filename:    filename,
		RefreshRate: r.RefreshRate.Value,
		Error:       r.Error,
	}
}

// ok reports whether the JSON status field signals success. 0 is used by the display endpoint.
func (r *apiResponse) ok() bool {
	return r.Status == 0 || r.Status == 200
}

// setupRequired reports whether the payload carries the provisioning sentinel.
func (r *apiResponse) setupRequired() bool {
	return r.Filename == setupSentinel || r.Error == setupSentinel
}
