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
	"sync"
)

// MemoryStore is a process-local KVStore. Values do not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers map[string]map[uint64]chan []byte
	nextID   uint64
	closed   bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		watchers: make(map[string]map[uint64]chan []byte),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, false, errStoreClosed
	}

	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}

	return cloneBytes(value), true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errStoreClosed
	}

	m.data[key] = cloneBytes(value)
	m.notifyLocked(key, value)

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errStoreClosed
	}

	if _, ok := m.data[key]; !ok {
		return nil
	}

	delete(m.data, key)
	m.notifyLocked(key, nil)

	return nil
}

// Watch delivers the latest value only; a slow reader skips intermediate values.
func (m *MemoryStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errStoreClosed
	}

	ch := make(chan []byte, 1)
	id := m.nextID
	m.nextID++

	if m.watchers[key] == nil {
		m.watchers[key] = make(map[uint64]chan []byte)
	}

	m.watchers[key][id] = ch

	if value, ok := m.data[key]; ok {
		ch <- cloneBytes(value)
	}

	go func() {
		<-ctx.Done()
		m.removeWatcher(key, id)
	}()

	return ch, nil
}

func (m *MemoryStore) removeWatcher(key string, id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.watchers[key][id]
	if !ok {
		return
	}

	delete(m.watchers[key], id)

	if len(m.watchers[key]) == 0 {
		delete(m.watchers, key)
	}

	close(ch)
}

// notifyLocked must be called with m.mu held.
func (m *MemoryStore) notifyLocked(key string, value []byte) {
	for _, ch := range m.watchers[key] {
		offerLatest(ch, cloneBytes(value))
	}
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true

	for key, watchers := range m.watchers {
		for id, ch := range watchers {
			close(ch)
			delete(watchers, id)
		}

		delete(m.watchers, key)
	}

	return nil
}

// offerLatest replaces any undelivered value in a one-slot channel.
func offerLatest(ch chan []byte, value []byte) {
	select {
	case ch <- value:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- value:
	default:
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}

	out := make([]byte, len(b))
	copy(out, b)

	return out
}

var _ KVStore = (*MemoryStore)(nil)
