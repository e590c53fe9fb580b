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

package jobs

import (
	"context"
	"net"
	"time"
)

const defaultProbeTimeout = 3 * time.Second

// NetworkMonitor reports whether the network constraint currently holds.
type NetworkMonitor interface {
	Online(ctx context.Context) bool
}

// NetworkMonitorFunc adapts a function to NetworkMonitor.
type NetworkMonitorFunc func(ctx context.Context) bool

func (f NetworkMonitorFunc) Online(ctx context.Context) bool {
	return f(ctx)
}

// AlwaysOnline treats the network as permanently available.
func AlwaysOnline() NetworkMonitor {
	return NetworkMonitorFunc(func(context.Context) bool { return true })
}

// DialProbe considers the network online when a TCP connection to Address succeeds.
type DialProbe struct {
	Address string
	Timeout time.Duration

	dialer net.Dialer
}

// NewDialProbe probes address ("host:port") with the given timeout.
func NewDialProbe(address string, timeout time.Duration) *DialProbe {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	return &DialProbe{Address: address, Timeout: timeout}
}

func (p *DialProbe) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return false
	}

	_ = conn.Close()

	return true
}
