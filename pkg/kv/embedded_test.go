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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/inkmirror/pkg/logger"
)

func openTestEmbedded(t *testing.T, dir string) KVStore {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, err := Open(ctx, &Config{Backend: BackendEmbedded, StoreDir: dir}, logger.NewTestLogger())
	require.NoError(t, err)

	return store
}

func TestEmbeddedStore_PersistsAcrossRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	dir := t.TempDir()
	ctx := context.Background()

	store := openTestEmbedded(t, dir)
	require.NoError(t, store.Put(ctx, "device_config", []byte(`{"device_type":"byos"}`)))
	require.NoError(t, store.Close())

	reopened := openTestEmbedded(t, dir)
	defer func() { _ = reopened.Close() }()

	value, found, err := reopened.Get(ctx, "device_config")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"device_type":"byos"}`, string(value))

	require.NoError(t, reopened.Delete(ctx, "device_config"))

	_, found, err = reopened.Get(ctx, "device_config")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEmbeddedStore_Watch(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	store := openTestEmbedded(t, t.TempDir())
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, store.Put(ctx, "image", []byte("first")))

	ch, err := store.Watch(ctx, "image")
	require.NoError(t, err)

	v, ok := recvWithin(t, ch)
	require.True(t, ok)
	assert.Equal(t, "first", string(v))

	require.NoError(t, store.Put(ctx, "image", []byte("second")))

	v, ok = recvWithin(t, ch)
	require.True(t, ok)
	assert.Equal(t, "second", string(v))

	require.NoError(t, store.Delete(ctx, "image"))

	v, ok = recvWithin(t, ch)
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestOpen_Memory(t *testing.T) {
	store, err := Open(context.Background(), &Config{Backend: BackendMemory}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), &Config{Backend: BackendNATS}, logger.NewTestLogger())
	require.ErrorIs(t, err, errNatsURLRequired)
}
