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

package transport

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
)

const defaultRequestTimeout = 30 * time.Second

var errNegativeTimeout = errors.New("client timeout must not be negative")

// ClientConfig configures the HTTP client used for the display API.
type ClientConfig struct {
	Timeout        models.Duration      `json:"timeout"`
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker"`
}

// Validate fills unset fields with defaults.
func (c *ClientConfig) Validate() error {
	if c.Timeout < 0 {
		return errNegativeTimeout
	}

	if c.Timeout == 0 {
		c.Timeout = models.Duration(defaultRequestTimeout)
	}

	return c.CircuitBreaker.Validate()
}

// NewHTTPClient builds the client chain: rate-limit retries outermost, then
// the optional circuit breaker, then the network transport. The timeout
// bounds each attempt, not the retry sequence; callers bound that with the
// request context.
func NewHTTPClient(cfg ClientConfig, clk clock.Clock, log logger.Logger, opts ...RateLimitOption) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("client config: %w", err)
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.ResponseHeaderTimeout = cfg.Timeout.Std()

	var rt http.RoundTripper = base

	if cfg.CircuitBreaker.Enabled {
		rt = NewCircuitBreakerTransport(rt, cfg.CircuitBreaker, clk, log)
	}

	rt = NewRateLimitTransport(rt, log, opts...)

	return &http.Client{Transport: rt}, nil
}
