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

package display

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
	"github.com/carverauto/inkmirror/pkg/version"
)

const (
	tracerName      = "github.com/carverauto/inkmirror/pkg/display"
	maxResponseSize = 1 << 20
)

// Client talks to the two display endpoints of the remote service.
type Client struct {
	httpClient *http.Client
	clock      clock.Clock
	logger     logger.Logger
	tracer     trace.Tracer
}

// NewClient returns a Client using httpClient, normally built by transport.NewHTTPClient.
func NewClient(httpClient *http.Client, clk clock.Clock, log logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		clock:      clk,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}
}

// CurrentScreen fetches the screen the device is currently showing.
func (c *Client) CurrentScreen(ctx context.Context, cfg *models.DeviceConfig) (*apiResponse, *models.HTTPResponseMetadata, error) {
	return c.fetch(ctx, cfg, currentScreenPath, func(body []byte) (*apiResponse, error) {
		var resp currentScreenResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, err
		}

		return resp.normalize(), nil
	})
}

// NextDisplay asks the service to advance the playlist and returns the new screen.
func (c *Client) NextDisplay(ctx context.Context, cfg *models.DeviceConfig) (*apiResponse, *models.HTTPResponseMetadata, error) {
	return c.fetch(ctx, cfg, nextDisplayPath, func(body []byte) (*apiResponse, error) {
		var resp displayResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, err
		}

		return resp.normalize(), nil
	})
}

func (c *Client) fetch(
	ctx context.Context, cfg *models.DeviceConfig, path string, decode func([]byte) (*apiResponse, error),
) (*apiResponse, *models.HTTPResponseMetadata, error) {
	ctx, span := c.tracer.Start(ctx, "display.fetch", trace.WithAttributes(
		attribute.String("display.endpoint", path),
		attribute.String("display.device_type", cfg.Type.String()),
	))
	defer span.End()

	resp, meta, err := c.doFetch(ctx, cfg, path, decode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if meta != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", meta.StatusCode))
	}

	return resp, meta, err
}

func (c *Client) doFetch(
	ctx context.Context, cfg *models.DeviceConfig, path string, decode func([]byte) (*apiResponse, error),
) (*apiResponse, *models.HTTPResponseMetadata, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if base == "" {
		return nil, nil, errMissingBaseURL
	}

	if !cfg.HasToken() {
		return nil, nil, errMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}

	token := strings.TrimSpace(cfg.APIAccessToken)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Access-Token", token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	if cfg.DeviceMacID != "" {
		req.Header.Set("ID", cfg.DeviceMacID)
	}

	start := c.clock.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	meta := responseMetadata(req, resp, start, c.clock.Now())

	c.logger.Debug().
		Str("url", meta.URL).
		Int("status", resp.StatusCode).
		Dur("duration", meta.RequestDuration).
		Msg("Display API response")

	if readErr != nil {
		return nil, meta, &NetworkError{Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, meta, &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	}

	parsed, err := decode(body)
	if err != nil {
		return nil, meta, fmt.Errorf("%w: %w", errDecodeResponse, err)
	}

	return parsed, meta, nil
}

// errorMessage prefers an "error" field in a JSON body over the status text.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}

		if payload.Message != "" {
			return payload.Message
		}
	}

	return http.StatusText(status)
}

func responseMetadata(req *http.Request, resp *http.Response, start, end time.Time) *models.HTTPResponseMetadata {
	return &models.HTTPResponseMetadata{
		URL:             req.URL.Redacted(),
		Method:          req.Method,
		StatusCode:      resp.StatusCode,
		Message:         http.StatusText(resp.StatusCode),
		Protocol:        resp.Proto,
		ContentType:     resp.Header.Get("Content-Type"),
		ContentLength:   resp.ContentLength,
		ServerName:      resp.Header.Get("Server"),
		RequestID:       firstHeader(resp.Header, "X-Request-Id", "X-Amzn-Trace-Id", "Cf-Ray"),
		RequestDuration: end.Sub(start),
		Timestamp:       end.UnixMilli(),
	}
}

func firstHeader(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}

	return ""
}
