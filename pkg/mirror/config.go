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

package mirror

import (
	"fmt"
	"time"

	"github.com/carverauto/inkmirror/pkg/events"
	inkhttp "github.com/carverauto/inkmirror/pkg/http"
	"github.com/carverauto/inkmirror/pkg/kv"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
	"github.com/carverauto/inkmirror/pkg/transport"
)

const (
	// DefaultConfigPath is where the daemon and the CLI look for their configuration.
	DefaultConfigPath = "/etc/inkmirror/inkmirror.json"
	defaultStoreDir   = "/var/lib/inkmirror"
	defaultStopWait   = 10 * time.Second
)

// Config is the inkmirror configuration document.
type Config struct {
	Logging *logger.Config         `json:"logging,omitempty"`
	KV      kv.Config              `json:"kv"`
	Client  transport.ClientConfig `json:"client"`
	HTTP    inkhttp.Config         `json:"http"`
	Events  events.Config          `json:"events"`

	// FakeAPI serves a fixed synthetic image instead of calling the display service.
	FakeAPI bool `json:"fake_api,omitempty"`
	// RejectStaleUpdates keeps a newer image when an older fetch finishes late.
	RejectStaleUpdates bool `json:"reject_stale_updates,omitempty"`
	// NetworkProbe is a host:port dialled to decide whether refresh jobs may run.
	// Empty means the network is always considered available.
	NetworkProbe string `json:"network_probe,omitempty"`
	// BlockedPollInterval is how often a job waiting for the network re-probes.
	BlockedPollInterval models.Duration `json:"blocked_poll_interval,omitempty"`
	StopTimeout         models.Duration `json:"stop_timeout,omitempty"`
}

// DefaultConfig returns a configuration using the embedded store and an enabled status API.
func DefaultConfig() *Config {
	return &Config{
		KV:   kv.Config{Backend: kv.BackendEmbedded, StoreDir: defaultStoreDir},
		HTTP: inkhttp.Config{Enabled: true},
	}
}

// Validate applies defaults to every section.
func (c *Config) Validate() error {
	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if c.KV.Backend == "" || c.KV.Backend == kv.BackendEmbedded {
		if c.KV.StoreDir == "" {
			c.KV.StoreDir = defaultStoreDir
		}
	}

	if err := c.KV.Validate(); err != nil {
		return fmt.Errorf("kv: %w", err)
	}

	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}

	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}

	if c.Events.Enabled && c.KV.Backend == kv.BackendMemory {
		return errEventsNeedJetStream
	}

	if c.StopTimeout <= 0 {
		c.StopTimeout = models.Duration(defaultStopWait)
	}

	return nil
}
