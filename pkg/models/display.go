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

package models

import (
	"strings"
	"time"
)

const (
	// HTTPStatusOK marks a usable DisplayInfo.
	HTTPStatusOK = 200
	// HTTPStatusFailed is the generic status used for every synthesized failure.
	HTTPStatusFailed = 500
)

// HTTPResponseMetadata captures diagnostic details of the last API exchange.
type HTTPResponseMetadata struct {
	URL             string        `json:"url"`
	Method          string        `json:"method"`
	StatusCode      int           `json:"status_code"`
	Message         string        `json:"message,omitempty"`
	Protocol        string        `json:"protocol,omitempty"`
	ContentType     string        `json:"content_type,omitempty"`
	ContentLength   int64         `json:"content_length"`
	ServerName      string        `json:"server_name,omitempty"`
	RequestID       string        `json:"request_id,omitempty"`
	RequestDuration time.Duration `json:"request_duration_ns"`
	Timestamp       int64         `json:"timestamp"`
}

// DisplayInfo is the canonical result of one fetch. It is never mutated after construction.
type DisplayInfo struct {
	HTTPStatus             int                   `json:"http_status"`
	DeviceType             DeviceType            `json:"device_type"`
	ImageURL               string                `json:"image_url"`
	ImageFileName          string                `json:"image_file_name"`
	Error                  string                `json:"error,omitempty"`
	RefreshIntervalSeconds *int64                `json:"refresh_interval_seconds,omitempty"`
	SetupRequired          bool                  `json:"setup_required,omitempty"`
	HTTPResponseMetadata   *HTTPResponseMetadata `json:"http_response_metadata,omitempty"`
}

// IsHTTPError reports whether the fetch failed at any layer.
func (d *DisplayInfo) IsHTTPError() bool {
	return d.HTTPStatus >= 400 || d.HTTPStatus == 0
}

// Usable reports whether the result carries an image that can be shown.
func (d *DisplayInfo) Usable() bool {
	return d.HTTPStatus == HTTPStatusOK && strings.TrimSpace(d.ImageURL) != ""
}

// RefreshInterval returns the server-reported interval, or zero when absent.
func (d *DisplayInfo) RefreshInterval() int64 {
	if d.RefreshIntervalSeconds == nil {
		return 0
	}

	return *d.RefreshIntervalSeconds
}
