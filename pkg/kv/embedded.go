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
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const embeddedReadyTimeout = 10 * time.Second

// EmbeddedServer is an in-process NATS server with JetStream file storage.
// It never opens a network listener; clients connect through the process.
type EmbeddedServer struct {
	ns *server.Server
}

// StartEmbeddedServer starts a JetStream-enabled server persisting under storeDir.
func StartEmbeddedServer(storeDir string) (*EmbeddedServer, error) {
	if storeDir == "" {
		return nil, errStoreDirRequired
	}

	opts := &server.Options{
		ServerName: "inkmirror-embedded",
		DontListen: true,
		JetStream:  true,
		StoreDir:   storeDir,
		NoSigs:     true,
		NoLog:      true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(embeddedReadyTimeout) {
		ns.Shutdown()

		return nil, errEmbeddedNotReady
	}

	return &EmbeddedServer{ns: ns}, nil
}

// Connect opens an in-process client connection.
func (e *EmbeddedServer) Connect() (*nats.Conn, error) {
	nc, err := nats.Connect(e.ns.ClientURL(), nats.InProcessServer(e.ns), nats.Name("inkmirror"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to embedded NATS server: %w", err)
	}

	return nc, nil
}

// Shutdown stops the server and waits for JetStream to flush.
func (e *EmbeddedServer) Shutdown() {
	e.ns.Shutdown()
	e.ns.WaitForShutdown()
}
