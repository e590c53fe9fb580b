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
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
)

func TestCircuitBreakerTransport(t *testing.T) {
	var failing atomic.Bool

	failing.Store(true)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	clk := clock.NewFixed(time.Now())
	cb := NewCircuitBreakerTransport(nil, CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          models.Duration(time.Minute),
	}, clk, logger.NewTestLogger())
	client := &http.Client{Transport: cb}

	get := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
		require.NoError(t, err)

		resp, err := client.Do(req)
		if resp != nil {
			_ = resp.Body.Close()
		}

		return resp, err
	}

	for i := 0; i < 2; i++ {
		resp, err := get()
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	}

	assert.Equal(t, StateOpen, cb.State())

	_, err := get()
	require.ErrorIs(t, err, ErrCircuitOpen)

	failing.Store(false)
	clk.Advance(time.Minute)

	resp, err := get()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerConfig_Defaults(t *testing.T) {
	cfg := CircuitBreakerConfig{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultCircuitBreakerConfig().FailureThreshold, cfg.FailureThreshold)
	assert.Equal(t, DefaultCircuitBreakerConfig().Timeout, cfg.Timeout)
	assert.Equal(t, "half-open", StateHalfOpen.String())
}

func TestNewHTTPClient_ChainsRateLimit(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(ClientConfig{CircuitBreaker: CircuitBreakerConfig{Enabled: true}},
		clock.Real(), logger.NewTestLogger(), WithSleeper(&recordingSleeper{}))
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewHTTPClient_RejectsInvalidConfig(t *testing.T) {
	client, err := NewHTTPClient(ClientConfig{Timeout: models.Duration(-time.Second)},
		clock.Real(), logger.NewTestLogger())

	require.ErrorIs(t, err, errNegativeTimeout)
	assert.Nil(t, client)
}

func TestClientConfig_ValidateAppliesDefaults(t *testing.T) {
	cfg := ClientConfig{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, models.Duration(defaultRequestTimeout), cfg.Timeout)
	assert.Equal(t, DefaultCircuitBreakerConfig().FailureThreshold, cfg.CircuitBreaker.FailureThreshold)
}
