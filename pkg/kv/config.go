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

package kv

import (
	"fmt"
	"path/filepath"

	"github.com/carverauto/inkmirror/pkg/models"
)

// Backend selects the KVStore implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendEmbedded Backend = "embedded"
	BackendNATS     Backend = "nats"
)

// Config holds the configuration for the persisted stores.
type Config struct {
	Backend       Backend                `json:"backend"`
	NATSURL       string                 `json:"nats_url,omitempty"`
	Security      *models.SecurityConfig `json:"security,omitempty"`
	Bucket        string                 `json:"bucket,omitempty"`         // KV bucket name
	Domain        string                 `json:"domain,omitempty"`         // Optional JetStream domain
	StoreDir      string                 `json:"store_dir,omitempty"`      // JetStream storage for the embedded server
	BucketHistory uint8                  `json:"bucket_history,omitempty"` // History depth per key
}

// Validate ensures the configuration is valid.
func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendEmbedded
	}

	switch c.Backend {
	case BackendMemory:
	case BackendEmbedded:
		if c.StoreDir == "" {
			return errStoreDirRequired
		}

		c.StoreDir = filepath.Clean(c.StoreDir)
	case BackendNATS:
		if c.NATSURL == "" {
			return errNatsURLRequired
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, c.Backend)
	}

	c.setDefaultBucket()
	c.setDefaultBucketOptions()

	return nil
}

// setDefaultBucket assigns a default bucket name if none is specified.
func (c *Config) setDefaultBucket() {
	if c.Bucket == "" {
		c.Bucket = "inkmirror"
	}
}

func (c *Config) setDefaultBucketOptions() {
	if c.BucketHistory == 0 {
		c.BucketHistory = 1
	}
}
