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

import "time"

// ImageMetadata is the last known-good image, persisted between runs.
type ImageMetadata struct {
	URL                 string `json:"url"`
	RefreshIntervalSecs *int64 `json:"refresh_interval_secs,omitempty"`
	ErrorMessage        string `json:"error_message,omitempty"`
	HTTPStatusCode      *int   `json:"http_status_code,omitempty"`
	Timestamp           int64  `json:"timestamp"` // epoch millis
}

// ExpiresAt returns the instant the image stops being valid and whether it can expire at all.
func (m *ImageMetadata) ExpiresAt() (time.Time, bool) {
	if m == nil || m.URL == "" || m.Timestamp <= 0 || m.RefreshIntervalSecs == nil {
		return time.Time{}, false
	}

	return time.UnixMilli(m.Timestamp + *m.RefreshIntervalSecs*1000), true
}

// IsValid reports whether url, timestamp and refresh rate are present and now
// is strictly before timestamp + rate.
func (m *ImageMetadata) IsValid(now time.Time) bool {
	expiry, ok := m.ExpiresAt()
	if !ok {
		return false
	}

	return now.UnixMilli() < expiry.UnixMilli()
}

// TimeUntilExpiration is zero for expired or incomplete metadata.
func (m *ImageMetadata) TimeUntilExpiration(now time.Time) time.Duration {
	expiry, ok := m.ExpiresAt()
	if !ok {
		return 0
	}

	remaining := time.Duration(expiry.UnixMilli()-now.UnixMilli()) * time.Millisecond
	if remaining < 0 {
		return 0
	}

	return remaining
}
