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
	"time"

	"github.com/google/uuid"
)

// MaxLogEntries bounds the persisted refresh history.
const MaxLogEntries = 100

// WorkType distinguishes the two refresh job identities.
type WorkType string

const (
	WorkTypeOneTime  WorkType = "ONE_TIME"
	WorkTypePeriodic WorkType = "PERIODIC"
)

// ParseWorkType defaults to one-time for anything unrecognised.
func ParseWorkType(s string) WorkType {
	if WorkType(s) == WorkTypePeriodic {
		return WorkTypePeriodic
	}

	return WorkTypeOneTime
}

// RefreshLogEntry records the outcome of one refresh attempt.
type RefreshLogEntry struct {
	ID                     string                `json:"id"`
	Timestamp              int64                 `json:"timestamp"` // epoch millis
	DeviceType             DeviceType            `json:"device_type"`
	Success                bool                  `json:"success"`
	ImageURL               string                `json:"image_url,omitempty"`
	ImageName              string                `json:"image_name,omitempty"`
	Error                  string                `json:"error,omitempty"`
	RefreshIntervalSeconds *int64                `json:"refresh_interval_seconds,omitempty"`
	WorkType               WorkType              `json:"work_type"`
	HTTPResponseMetadata   *HTTPResponseMetadata `json:"http_response_metadata,omitempty"`
}

// NewSuccessLogEntry builds a log entry for a successful fetch.
func NewSuccessLogEntry(now time.Time, info *DisplayInfo, workType WorkType) RefreshLogEntry {
	return RefreshLogEntry{
		ID:                     uuid.NewString(),
		Timestamp:              now.UnixMilli(),
		DeviceType:             info.DeviceType,
		Success:                true,
		ImageURL:               info.ImageURL,
		ImageName:              info.ImageFileName,
		RefreshIntervalSeconds: info.RefreshIntervalSeconds,
		WorkType:               workType,
		HTTPResponseMetadata:   info.HTTPResponseMetadata,
	}
}

// NewFailureLogEntry builds a log entry for a failed attempt. meta may be nil.
func NewFailureLogEntry(
	now time.Time, deviceType DeviceType, errMsg string, workType WorkType, meta *HTTPResponseMetadata,
) RefreshLogEntry {
	return RefreshLogEntry{
		ID:                   uuid.NewString(),
		Timestamp:            now.UnixMilli(),
		DeviceType:           deviceType,
		Success:              false,
		Error:                errMsg,
		WorkType:             workType,
		HTTPResponseMetadata: meta,
	}
}

// Time returns the entry timestamp as a time.Time.
func (e *RefreshLogEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}
