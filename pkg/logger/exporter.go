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

package logger

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"google.golang.org/grpc/credentials"

	"github.com/carverauto/inkmirror/pkg/models"
)

const defaultBatchTimeout = 5 * time.Second

var errFailedToParseCACert = errors.New("failed to parse CA certificate")

// OTelConfig is shared by the log, metric and trace exporters.
type OTelConfig struct {
	Enabled      bool              `json:"enabled"`
	Endpoint     string            `json:"endpoint"`
	Headers      map[string]string `json:"headers,omitempty"`
	ServiceName  string            `json:"service_name"`
	BatchTimeout models.Duration   `json:"batch_timeout"`
	Insecure     bool              `json:"insecure"`
	TLS          *models.TLSConfig `json:"tls,omitempty"`
}

// DefaultOTelConfig follows the standard OTEL_* environment variables.
func DefaultOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      envBool("OTEL_ENABLED", false),
		Endpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Headers:      parseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		ServiceName:  envString("OTEL_SERVICE_NAME", defaultServiceName),
		BatchTimeout: models.Duration(envDuration("OTEL_EXPORTER_OTLP_TIMEOUT", defaultBatchTimeout)),
		Insecure:     envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}
}

func (c *OTelConfig) exporting() bool {
	return c != nil && c.Enabled && c.Endpoint != ""
}

func (c *OTelConfig) batchTimeout() time.Duration {
	if c.BatchTimeout <= 0 {
		return defaultBatchTimeout
	}

	return c.BatchTimeout.Std()
}

// dialSettings is the gRPC connection setup common to the OTLP exporters.
type dialSettings struct {
	endpoint string
	insecure bool
	creds    credentials.TransportCredentials
	headers  map[string]string
}

func (c *OTelConfig) dialSettings() (dialSettings, error) {
	s := dialSettings{endpoint: c.Endpoint, insecure: c.Insecure, headers: c.Headers}

	if c.Insecure || c.TLS == nil {
		return s, nil
	}

	tlsConfig, err := clientTLSConfig(c.TLS)
	if err != nil {
		return s, fmt.Errorf("failed to setup TLS configuration: %w", err)
	}

	s.creds = credentials.NewTLS(tlsConfig)

	return s, nil
}

func (s dialSettings) logOptions() []otlploggrpc.Option {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(s.endpoint)}

	switch {
	case s.insecure:
		opts = append(opts, otlploggrpc.WithInsecure())
	case s.creds != nil:
		opts = append(opts, otlploggrpc.WithTLSCredentials(s.creds))
	}

	if len(s.headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(s.headers))
	}

	return opts
}

func (s dialSettings) metricOptions() []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(s.endpoint)}

	switch {
	case s.insecure:
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	case s.creds != nil:
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(s.creds))
	}

	if len(s.headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(s.headers))
	}

	return opts
}

func (s dialSettings) traceOptions() []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(s.endpoint)}

	switch {
	case s.insecure:
		opts = append(opts, otlptracegrpc.WithInsecure())
	case s.creds != nil:
		opts = append(opts, otlptracegrpc.WithTLSCredentials(s.creds))
	}

	if len(s.headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(s.headers))
	}

	return opts
}

// clientTLSConfig loads an optional client key pair and CA bundle.
func clientTLSConfig(paths *models.TLSConfig) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if paths.CertFile != "" && paths.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(paths.CertFile, paths.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		cfg.Certificates = []tls.Certificate{cert}
	}

	if paths.CAFile == "" {
		return cfg, nil
	}

	pem, err := os.ReadFile(paths.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errFailedToParseCACert
	}

	cfg.RootCAs = pool

	return cfg, nil
}
