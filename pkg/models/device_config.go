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
	"errors"
	"fmt"
	"strings"
)

var (
	errUnknownDeviceType = errors.New("unknown device type")
	errMissingBaseURL    = errors.New("api_base_url is required")
	errMissingToken      = errors.New("api_access_token is required")
	errNegativeRate      = errors.New("refresh_rate_secs must not be negative")
)

// DeviceType identifies how the mirrored display is hosted.
type DeviceType string

const (
	// DeviceTypePrimary is an official cloud-hosted device.
	DeviceTypePrimary DeviceType = "trmnl"
	// DeviceTypeBYOD is a bring-your-own-device registration on the cloud service.
	DeviceTypeBYOD DeviceType = "byod"
	// DeviceTypeBYOS is a device served by a self-hosted server.
	DeviceTypeBYOS DeviceType = "byos"
)

// ParseDeviceType accepts the canonical names plus a few common spellings.
func ParseDeviceType(s string) (DeviceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trmnl", "primary":
		return DeviceTypePrimary, nil
	case "byod", "bring_your_own_device":
		return DeviceTypeBYOD, nil
	case "byos", "bring_your_own_server":
		return DeviceTypeBYOS, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownDeviceType, s)
	}
}

func (t DeviceType) String() string {
	return string(t)
}

// Valid reports whether t is one of the known device types.
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypePrimary, DeviceTypeBYOD, DeviceTypeBYOS:
		return true
	default:
		return false
	}
}

// PlaylistMode decides which remote endpoint a refresh job calls.
type PlaylistMode int

const (
	// PlaylistModeMirror always fetches the screen currently shown on the device.
	PlaylistModeMirror PlaylistMode = iota
	// PlaylistModeAdvance asks the remote service to move to the next playlist item.
	PlaylistModeAdvance
)

func (m PlaylistMode) String() string {
	if m == PlaylistModeAdvance {
		return "advance"
	}

	return "mirror"
}

// AdvancesPlaylist is a convenience for callers that only need the flag.
func (m PlaylistMode) AdvancesPlaylist() bool {
	return m == PlaylistModeAdvance
}

// DeviceConfig is the persisted device registration. It is overwritten wholesale on save.
type DeviceConfig struct {
	Type            DeviceType `json:"device_type"`
	APIBaseURL      string     `json:"api_base_url"`
	APIAccessToken  string     `json:"api_access_token"`
	DeviceMacID     string     `json:"device_mac_id,omitempty"`
	RefreshRateSecs *int64     `json:"refresh_rate_secs,omitempty"`
	IsMasterDevice  *bool      `json:"is_master_device,omitempty"`
}

// PlaylistMode resolves the playlist behaviour for this device.
//
// BYOS always advances, the primary device always mirrors, and BYOD advances
// unless it has been explicitly marked as a non-master device.
func (c *DeviceConfig) PlaylistMode() PlaylistMode {
	switch c.Type {
	case DeviceTypeBYOS:
		return PlaylistModeAdvance
	case DeviceTypeBYOD:
		if c.IsMasterDevice == nil || *c.IsMasterDevice {
			return PlaylistModeAdvance
		}

		return PlaylistModeMirror
	default:
		return PlaylistModeMirror
	}
}

// HasToken reports whether an access token is configured.
func (c *DeviceConfig) HasToken() bool {
	return c != nil && strings.TrimSpace(c.APIAccessToken) != ""
}

// RefreshRate returns the stored refresh rate or fallback when unset.
func (c *DeviceConfig) RefreshRate(fallback int64) int64 {
	if c == nil || c.RefreshRateSecs == nil {
		return fallback
	}

	return *c.RefreshRateSecs
}

// Validate checks the fields a settings surface must provide.
func (c *DeviceConfig) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", errUnknownDeviceType, c.Type)
	}

	if strings.TrimSpace(c.APIBaseURL) == "" {
		return errMissingBaseURL
	}

	if !c.HasToken() {
		return errMissingToken
	}

	if c.RefreshRateSecs != nil && *c.RefreshRateSecs < 0 {
		return errNegativeRate
	}

	return nil
}

// MaskedToken returns the token with all but the last four characters hidden.
func (c *DeviceConfig) MaskedToken() string {
	token := c.APIAccessToken
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}

	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}
