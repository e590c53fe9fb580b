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

// Package store persists the device registration, the last known-good image
// and the refresh history on top of a kv.KVStore.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carverauto/inkmirror/pkg/kv"
	"github.com/carverauto/inkmirror/pkg/logger"
)

const (
	deviceConfigKey  = "device_config"
	imageMetadataKey = "image_metadata"
	refreshLogKey    = "refresh_log"
)

var (
	// ErrNoDeviceConfig is returned by partial updates when nothing has been saved yet.
	ErrNoDeviceConfig = errors.New("no device config stored")
	errNegativeRate   = errors.New("refresh rate must not be negative")
)

func getJSON[T any](ctx context.Context, store kv.KVStore, key string) (*T, error) {
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if !found || len(raw) == 0 {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}

	return &out, nil
}

func putJSON(ctx context.Context, store kv.KVStore, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return nil
}

// watchJSON decodes every change of key. A deleted key is delivered as nil;
// values that fail to decode are logged and skipped.
func watchJSON[T any](ctx context.Context, store kv.KVStore, key string, log logger.Logger) (<-chan *T, error) {
	raw, err := store.Watch(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", key, err)
	}

	out := make(chan *T, 1)

	go func() {
		defer close(out)

		for value := range raw {
			var decoded *T

			if len(value) > 0 {
				decoded = new(T)
				if err := json.Unmarshal(value, decoded); err != nil {
					log.Warn().Err(err).Str("key", key).Msg("Skipping undecodable value")

					continue
				}
			}

			select {
			case out <- decoded:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// mapChan applies fn to every value of in until in closes or ctx ends.
func mapChan[In, Out any](ctx context.Context, in <-chan In, fn func(In) Out) <-chan Out {
	out := make(chan Out, 1)

	go func() {
		defer close(out)

		for v := range in {
			select {
			case out <- fn(v):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
