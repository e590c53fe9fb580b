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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceConfig_PlaylistMode(t *testing.T) {
	tests := []struct {
		name     string
		config   DeviceConfig
		expected PlaylistMode
	}{
		{
			name:     "primary device mirrors",
			config:   DeviceConfig{Type: DeviceTypePrimary, IsMasterDevice: BoolPtr(true)},
			expected: PlaylistModeMirror,
		},
		{
			name:     "byos always advances",
			config:   DeviceConfig{Type: DeviceTypeBYOS, IsMasterDevice: BoolPtr(false)},
			expected: PlaylistModeAdvance,
		},
		{
			name:     "byod master advances",
			config:   DeviceConfig{Type: DeviceTypeBYOD, IsMasterDevice: BoolPtr(true)},
			expected: PlaylistModeAdvance,
		},
		{
			name:     "byod unset master defaults to advance",
			config:   DeviceConfig{Type: DeviceTypeBYOD},
			expected: PlaylistModeAdvance,
		},
		{
			name:     "byod slave mirrors",
			config:   DeviceConfig{Type: DeviceTypeBYOD, IsMasterDevice: BoolPtr(false)},
			expected: PlaylistModeMirror,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.PlaylistMode())
		})
	}
}

func TestDeviceConfig_Validate(t *testing.T) {
	valid := DeviceConfig{Type: DeviceTypeBYOS, APIBaseURL: "https://byos.local/api", APIAccessToken: "abc"}
	require.NoError(t, valid.Validate())

	noToken := valid
	noToken.APIAccessToken = "  "
	require.ErrorIs(t, noToken.Validate(), errMissingToken)

	badType := valid
	badType.Type = "kindle"
	require.ErrorIs(t, badType.Validate(), errUnknownDeviceType)

	negative := valid
	negative.RefreshRateSecs = Int64Ptr(-1)
	require.ErrorIs(t, negative.Validate(), errNegativeRate)
}

func TestParseDeviceType(t *testing.T) {
	dt, err := ParseDeviceType("BYOD")
	require.NoError(t, err)
	assert.Equal(t, DeviceTypeBYOD, dt)

	dt, err = ParseDeviceType("primary")
	require.NoError(t, err)
	assert.Equal(t, DeviceTypePrimary, dt)

	_, err = ParseDeviceType("nook")
	require.Error(t, err)
}

func TestImageMetadata_Validity(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	meta := ImageMetadata{
		URL:                 "https://x/img.png",
		RefreshIntervalSecs: Int64Ptr(3600),
		Timestamp:           now.UnixMilli(),
	}

	assert.True(t, meta.IsValid(now))
	assert.Equal(t, time.Hour, meta.TimeUntilExpiration(now))

	later := now.Add(time.Hour)
	assert.False(t, meta.IsValid(later), "validity is strict at the expiry instant")
	assert.Equal(t, time.Duration(0), meta.TimeUntilExpiration(later.Add(time.Minute)))

	missingRate := meta
	missingRate.RefreshIntervalSecs = nil
	assert.False(t, missingRate.IsValid(now))

	missingURL := meta
	missingURL.URL = ""
	assert.False(t, missingURL.IsValid(now))

	missingTimestamp := meta
	missingTimestamp.Timestamp = 0
	assert.False(t, missingTimestamp.IsValid(now))

	var nilMeta *ImageMetadata
	assert.False(t, nilMeta.IsValid(now))
}

func TestDisplayInfo_Usable(t *testing.T) {
	ok := DisplayInfo{HTTPStatus: HTTPStatusOK, ImageURL: "https://x/img.png"}
	assert.True(t, ok.Usable())
	assert.False(t, ok.IsHTTPError())

	empty := DisplayInfo{HTTPStatus: HTTPStatusOK}
	assert.False(t, empty.Usable())

	failed := DisplayInfo{HTTPStatus: HTTPStatusFailed, ImageURL: "https://x/img.png"}
	assert.False(t, failed.Usable())
	assert.True(t, failed.IsHTTPError())
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var d Duration

	require.NoError(t, json.Unmarshal([]byte(`"90s"`), &d))
	assert.Equal(t, 90*time.Second, d.Std())

	require.NoError(t, json.Unmarshal([]byte(`1000000000`), &d))
	assert.Equal(t, time.Second, d.Std())

	require.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	require.Error(t, json.Unmarshal([]byte(`true`), &d))

	out, err := json.Marshal(Duration(2 * time.Minute))
	require.NoError(t, err)
	assert.JSONEq(t, `"2m0s"`, string(out))
}

func TestNewJSONCloudEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	event := NewJSONCloudEvent("id-1", "inkmirror/worker", "com.example.test", "inkmirror.refresh.failed", at, map[string]int{"n": 1})

	out, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"specversion": "1.0",
		"id": "id-1",
		"source": "inkmirror/worker",
		"type": "com.example.test",
		"datacontenttype": "application/json",
		"subject": "inkmirror.refresh.failed",
		"time": "2026-03-01T11:00:00Z",
		"data": {"n": 1}
	}`, string(out))
}
