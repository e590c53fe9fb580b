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
	"context"
	"fmt"

	"github.com/carverauto/inkmirror/pkg/logger"
)

// Open validates cfg and returns the KVStore for the selected backend.
func Open(ctx context.Context, cfg *Config, log logger.Logger) (KVStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendMemory:
		log.Warn().Msg("Using in-memory KV store; state will not survive a restart")

		return NewMemoryStore(), nil
	case BackendNATS:
		log.Info().Str("url", cfg.NATSURL).Str("bucket", cfg.Bucket).Msg("Connecting to NATS KV")

		return NewNatsStore(ctx, cfg, log)
	case BackendEmbedded:
		return openEmbedded(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBackend, cfg.Backend)
	}
}

func openEmbedded(ctx context.Context, cfg *Config, log logger.Logger) (*NatsStore, error) {
	srv, err := StartEmbeddedServer(cfg.StoreDir)
	if err != nil {
		return nil, err
	}

	nc, err := srv.Connect()
	if err != nil {
		srv.Shutdown()

		return nil, err
	}

	store, err := newNatsStoreFromConn(ctx, nc, cfg, log)
	if err != nil {
		nc.Close()
		srv.Shutdown()

		return nil, err
	}

	store.embedded = srv

	log.Info().Str("store_dir", cfg.StoreDir).Str("bucket", cfg.Bucket).Msg("Started embedded NATS KV")

	return store, nil
}
