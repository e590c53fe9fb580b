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

// Package lifecycle holds process start-up helpers shared by the inkmirror binary and its subcommands.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/version"
)

// CreateLogger creates a new logger instance with the provided configuration.
func CreateLogger(ctx context.Context, config *logger.Config) (logger.Logger, error) {
	l, err := logger.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return l, nil
}

// CreateComponentLogger creates a logger whose records carry the given component field.
func CreateComponentLogger(ctx context.Context, component string, config *logger.Config) (logger.Logger, error) {
	base, err := CreateLogger(ctx, config)
	if err != nil {
		return nil, err
	}

	return logger.NewComponentLogger(base, component), nil
}

// InitTelemetry installs the global meter and tracer providers for a long-running
// process. Failures are logged; the process keeps running with no-op providers.
// ShutdownLogger flushes both.
func InitTelemetry(ctx context.Context, serviceName string, config *logger.Config, log logger.Logger) {
	_, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.GetVersion(),
		OTel:           &config.OTel,
	})
	if err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		log.Warn().Err(err).Msg("Failed to initialize OTel metrics")
	}

	if _, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.GetVersion(),
		Logger:         log,
		OTel:           &config.OTel,
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracing")
	}
}

// ShutdownLogger flushes any pending OTel exports.
func ShutdownLogger() error {
	return logger.Shutdown()
}
