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
	"sync"
	"time"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
)

// ErrCircuitOpen is returned without contacting the server while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

var errServerError = errors.New("server error")

// CircuitBreakerState represents the current state of the circuit breaker
type CircuitBreakerState int

const (
	// StateClosed - Circuit is closed, requests are allowed
	StateClosed CircuitBreakerState = iota
	// StateOpen - Circuit is open, requests are rejected
	StateOpen
	// StateHalfOpen - Circuit is testing if the service has recovered
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	Enabled bool `json:"enabled"`
	// FailureThreshold is the number of consecutive failures before opening the circuit
	FailureThreshold int `json:"failure_threshold"`
	// SuccessThreshold is the number of successes needed to close the circuit from half-open
	SuccessThreshold int `json:"success_threshold"`
	// Timeout is how long to wait before transitioning from open to half-open
	Timeout models.Duration `json:"timeout"`
}

// DefaultCircuitBreakerConfig returns the defaults used when fields are left unset.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          models.Duration(5 * time.Minute),
	}
}

// Validate fills unset fields with defaults.
func (c *CircuitBreakerConfig) Validate() error {
	defaults := DefaultCircuitBreakerConfig()

	if c.FailureThreshold <= 0 {
		c.FailureThreshold = defaults.FailureThreshold
	}

	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = defaults.SuccessThreshold
	}

	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}

	return nil
}

// CircuitBreakerTransport stops calling a failing API for a cool-down period.
// Transport errors and 5xx responses count as failures.
type CircuitBreakerTransport struct {
	next   http.RoundTripper
	config CircuitBreakerConfig
	clock  clock.Clock
	logger logger.Logger

	mu           sync.Mutex
	state        CircuitBreakerState
	failureCount int
	successCount int
	lastFailTime time.Time
}

// NewCircuitBreakerTransport wraps next. A nil next uses http.DefaultTransport.
func NewCircuitBreakerTransport(
	next http.RoundTripper, config CircuitBreakerConfig, clk clock.Clock, log logger.Logger,
) *CircuitBreakerTransport {
	if next == nil {
		next = http.DefaultTransport
	}

	_ = config.Validate()

	return &CircuitBreakerTransport{
		next:   next,
		config: config,
		clock:  clk,
		logger: log,
		state:  StateClosed,
	}
}

func (cb *CircuitBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !cb.allowRequest() {
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, req.URL.Host)
	}

	resp, err := cb.next.RoundTrip(req)

	switch {
	case err != nil:
		cb.recordResult(err)
	case resp.StatusCode >= http.StatusInternalServerError:
		cb.recordResult(fmt.Errorf("%w: %d", errServerError, resp.StatusCode))
	default:
		cb.recordResult(nil)
	}

	return resp, err
}

func (cb *CircuitBreakerTransport) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if cb.clock.Now().Sub(cb.lastFailTime) >= cb.config.Timeout.Std() {
			cb.state = StateHalfOpen
			cb.successCount = 0
			cb.logger.Info().Msg("Circuit breaker transitioning to half-open")

			return true
		}

		return false
	default:
		return false
	}
}

func (cb *CircuitBreakerTransport) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.onFailure(err)
	} else {
		cb.onSuccess()
	}
}

func (cb *CircuitBreakerTransport) onFailure(err error) {
	cb.failureCount++
	cb.lastFailTime = cb.clock.Now()

	switch cb.state {
	case StateClosed:
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.state = StateOpen
			cb.logger.Warn().
				Err(err).
				Int("failure_count", cb.failureCount).
				Msg("Circuit breaker opened due to failures")
		}
	case StateHalfOpen:
		cb.state = StateOpen
		cb.logger.Warn().Err(err).Msg("Circuit breaker reopened after failed attempt in half-open state")
	case StateOpen:
	}
}

func (cb *CircuitBreakerTransport) onSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.logger.Info().Msg("Circuit breaker closed after successful recovery")
		}
	case StateClosed:
		cb.failureCount = 0
	case StateOpen:
	}
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreakerTransport) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}
