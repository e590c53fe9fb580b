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
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/inkmirror/pkg/logger"
)

const (
	// MaxRetryAttempts is the number of retries after the initial request.
	MaxRetryAttempts = 5
	// MaxBackoff caps the computed backoff. It does not cap Retry-After.
	MaxBackoff = 32 * time.Second

	retryAfterHeader = "Retry-After"
	maxDrainBytes    = 4 << 10
	meterName        = "github.com/carverauto/inkmirror/pkg/transport"
)

// RateLimitTransport retries idempotent requests answered with 429 Too Many Requests.
type RateLimitTransport struct {
	next        http.RoundTripper
	sleeper     Sleeper
	jitter      func() float64
	maxAttempts int
	maxBackoff  time.Duration
	logger      logger.Logger
	retries     metric.Int64Counter
}

// RateLimitOption configures a RateLimitTransport.
type RateLimitOption func(*RateLimitTransport)

// WithSleeper replaces the real timer-based sleeper.
func WithSleeper(s Sleeper) RateLimitOption {
	return func(t *RateLimitTransport) {
		t.sleeper = s
	}
}

// WithJitterSource sets the source of uniform values in [0, 1) used for jitter.
func WithJitterSource(fn func() float64) RateLimitOption {
	return func(t *RateLimitTransport) {
		t.jitter = fn
	}
}

// WithMaxRetryAttempts overrides MaxRetryAttempts.
func WithMaxRetryAttempts(n int) RateLimitOption {
	return func(t *RateLimitTransport) {
		t.maxAttempts = n
	}
}

// NewRateLimitTransport wraps next. A nil next uses http.DefaultTransport.
func NewRateLimitTransport(next http.RoundTripper, log logger.Logger, opts ...RateLimitOption) *RateLimitTransport {
	if next == nil {
		next = http.DefaultTransport
	}

	t := &RateLimitTransport{
		next:        next,
		sleeper:     RealSleeper(),
		jitter:      rand.Float64,
		maxAttempts: MaxRetryAttempts,
		maxBackoff:  MaxBackoff,
		logger:      log,
	}

	for _, opt := range opts {
		opt(t)
	}

	counter, err := otel.Meter(meterName).Int64Counter(
		"inkmirror.http.rate_limited_retries",
		metric.WithDescription("Requests retried after a 429 response"),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create rate limit retry counter")
	}

	t.retries = counter

	return t
}

// RoundTrip implements http.RoundTripper. After the retry budget is spent the
// last 429 response is returned to the caller unmodified.
func (t *RateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusTooManyRequests {
		return resp, err
	}

	if !isIdempotent(req.Method) {
		t.logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL.Redacted()).
			Msg("Not retrying rate limited non-idempotent request")

		return resp, nil
	}

	ctx := req.Context()

	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		delay := t.RetryDelay(resp, attempt)

		t.logger.Warn().
			Str("url", req.URL.Redacted()).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Rate limited, backing off")

		drainAndClose(resp.Body)

		if err := t.sleeper.Sleep(ctx, delay); err != nil {
			return nil, err
		}

		if t.retries != nil {
			t.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("method", req.Method)))
		}

		retryReq, err := rewindRequest(req)
		if err != nil {
			return nil, err
		}

		resp, err = t.next.RoundTrip(retryReq)
		if err != nil || resp.StatusCode != http.StatusTooManyRequests {
			return resp, err
		}
	}

	t.logger.Warn().
		Str("url", req.URL.Redacted()).
		Int("attempts", t.maxAttempts).
		Msg("Rate limit retries exhausted")

	return resp, nil
}

// RetryDelay returns the wait before retry number attempt (1-based). A
// Retry-After value in whole seconds is used verbatim; otherwise the wait is
// a uniformly jittered value in [base/2, base] with base = min(2^(attempt-1)s, MaxBackoff).
func (t *RateLimitTransport) RetryDelay(resp *http.Response, attempt int) time.Duration {
	if d, ok := parseRetryAfter(resp.Header.Get(retryAfterHeader)); ok {
		return d
	}

	base := t.maxBackoff
	if attempt < 1 {
		attempt = 1
	}

	if shift := attempt - 1; shift < 30 {
		if exp := time.Second << shift; exp < base {
			base = exp
		}
	}

	half := base / 2

	return half + time.Duration(t.jitter()*float64(base-half))
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil || secs < 0 {
		return 0, false
	}

	return time.Duration(secs) * time.Second, true
}

func isIdempotent(method string) bool {
	switch method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// rewindRequest returns a request that can be sent again.
func rewindRequest(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}

	if req.GetBody == nil {
		return req, nil
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}

	clone := req.Clone(req.Context())
	clone.Body = body

	return clone, nil
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
	_ = body.Close()
}
