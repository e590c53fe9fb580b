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

// Package http serves the mirror's status API: current image, cache state,
// refresh history, a manual refresh trigger and a websocket update stream.
package http

import (
	"errors"
	"time"

	"github.com/carverauto/inkmirror/pkg/models"
)

const (
	defaultListenAddr   = "127.0.0.1:8470"
	defaultRefreshEvery = 10 * time.Second
	defaultRefreshBurst = 3
)

var errInvalidRefreshLimit = errors.New("refresh_burst must not be negative")

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins,omitempty"`
	AllowCredentials bool     `json:"allow_credentials,omitempty"`
}

// Config configures the status server.
type Config struct {
	Enabled    bool       `json:"enabled"`
	ListenAddr string     `json:"listen_addr"`
	APIKey     string     `json:"api_key,omitempty"`
	CORS       CORSConfig `json:"cors"`

	// Manual refresh triggers are limited to one per RefreshEvery with bursts of RefreshBurst.
	RefreshEvery models.Duration `json:"refresh_every,omitempty"`
	RefreshBurst int             `json:"refresh_burst,omitempty"`
}

// Validate fills defaults.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.RefreshEvery <= 0 {
		c.RefreshEvery = models.Duration(defaultRefreshEvery)
	}

	if c.RefreshBurst < 0 {
		return errInvalidRefreshLimit
	}

	if c.RefreshBurst == 0 {
		c.RefreshBurst = defaultRefreshBurst
	}

	return nil
}
