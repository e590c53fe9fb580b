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
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/inkmirror/pkg/logger"
)

// NatsStore is a KVStore backed by a JetStream key-value bucket.
type NatsStore struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	kv       jetstream.KeyValue
	embedded *EmbeddedServer
	logger   logger.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewNatsStore dials cfg.NATSURL and opens (or creates) the configured bucket.
func NewNatsStore(ctx context.Context, cfg *Config, log logger.Logger) (*NatsStore, error) {
	opts := []nats.Option{nats.Name("inkmirror")}

	if cfg.Security != nil && cfg.Security.Mode != "" && cfg.Security.Mode != "none" {
		tlsConfig, err := TLSConfig(cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConfig))
	}

	nc, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	store, err := newNatsStoreFromConn(ctx, nc, cfg, log)
	if err != nil {
		nc.Close()

		return nil, err
	}

	return store, nil
}

func newNatsStoreFromConn(ctx context.Context, nc *nats.Conn, cfg *Config, log logger.Logger) (*NatsStore, error) {
	var (
		js  jetstream.JetStream
		err error
	)

	if cfg.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, cfg.Domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  cfg.Bucket,
		History: cfg.BucketHistory,
		Storage: jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create KV bucket %s: %w", cfg.Bucket, err)
	}

	return &NatsStore{
		nc:     nc,
		js:     js,
		kv:     bucket,
		logger: log,
		done:   make(chan struct{}),
	}, nil
}

// Conn exposes the underlying connection so other publishers can share it.
func (n *NatsStore) Conn() *nats.Conn {
	return n.nc
}

// JetStream exposes the JetStream context bound to the configured domain.
func (n *NatsStore) JetStream() jetstream.JetStream {
	return n.js
}

func (n *NatsStore) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	var entry jetstream.KeyValueEntry

	entry, err = n.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return entry.Value(), true, nil
}

func (n *NatsStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := n.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	return nil
}

func (n *NatsStore) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

func (n *NatsStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	watcher, err := n.kv.Watch(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to watch key %s: %w", key, err)
	}

	ch := make(chan []byte, 1)
	go n.handleWatchUpdates(ctx, key, watcher, ch)

	return ch, nil
}

// handleWatchUpdates forwards entries until ctx ends or the store closes.
// The nil entry that marks the end of the initial values is skipped, and
// delete or purge markers are forwarded as nil.
func (n *NatsStore) handleWatchUpdates(ctx context.Context, key string, watcher jetstream.KeyWatcher, ch chan []byte) {
	defer func() {
		if err := watcher.Stop(); err != nil {
			n.logger.Debug().Err(err).Str("key", key).Msg("Failed to stop KV watcher")
		}

		close(ch)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				return
			}

			if entry == nil {
				continue
			}

			var value []byte
			if entry.Operation() == jetstream.KeyValuePut {
				value = entry.Value()
			}

			offerLatest(ch, value)
		}
	}
}

func (n *NatsStore) Close() error {
	n.closeOnce.Do(func() {
		close(n.done)

		n.nc.Close()

		if n.embedded != nil {
			n.embedded.Shutdown()
		}
	})

	return nil
}

var _ KVStore = (*NatsStore)(nil)
