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
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"

	"github.com/carverauto/inkmirror/pkg/models"
)

// TLSConfig builds a tls.Config for connecting to an external NATS server.
// Mode tls only verifies the server; mtls also presents a client certificate.
func TLSConfig(sec *models.SecurityConfig) (*tls.Config, error) {
	if sec == nil || (sec.Mode != models.SecurityModeMTLS && sec.Mode != models.SecurityModeTLS) {
		return nil, errMTLSRequired
	}

	paths := normalizeTLSPaths(sec.TLS, sec.CertDir)

	config := &tls.Config{
		ServerName: sec.ServerName,
		MinVersion: tls.VersionTLS13,
	}

	if paths.CAFile != "" {
		caCert, err := os.ReadFile(paths.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, errFailedToParseCACert
		}

		config.RootCAs = caPool
	}

	if sec.Mode == models.SecurityModeMTLS {
		cert, err := tls.LoadX509KeyPair(paths.CertFile, paths.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		config.Certificates = []tls.Certificate{cert}
	}

	return config, nil
}

// normalizeTLSPaths resolves relative certificate paths against certDir.
func normalizeTLSPaths(paths models.TLSConfig, certDir string) models.TLSConfig {
	if certDir == "" {
		return paths
	}

	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}

		return filepath.Join(certDir, p)
	}

	return models.TLSConfig{
		CertFile: join(paths.CertFile),
		KeyFile:  join(paths.KeyFile),
		CAFile:   join(paths.CAFile),
	}
}
