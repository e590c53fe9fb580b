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

// Package coordinator broadcasts the most recent image to any number of observers.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
)

//go:generate mockgen -destination=mock_coordinator.go -package=coordinator github.com/carverauto/inkmirror/pkg/coordinator ImageUpdater,MetadataSource

// ImageUpdater accepts new images from refresh jobs.
type ImageUpdater interface {
	UpdateImage(url string, refreshIntervalSecs *int64, errorMessage string)
	UpdateImageFrom(startedAt time.Time, url string, refreshIntervalSecs *int64, errorMessage string) bool
}

// MetadataSource provides the persisted image cache used to seed the broadcast.
type MetadataSource interface {
	Get(ctx context.Context) (*models.ImageMetadata, error)
}

// ImageUpdate is one broadcast value.
type ImageUpdate struct {
	URL                 string    `json:"url"`
	RefreshIntervalSecs *int64    `json:"refresh_interval_secs,omitempty"`
	ErrorMessage        string    `json:"error_message,omitempty"`
	StartedAt           time.Time `json:"started_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	FromCache           bool      `json:"from_cache,omitempty"`
}

// Coordinator holds the latest image in memory. It is a derived view of the
// persisted cache and may be stale or empty.
type Coordinator struct {
	source      MetadataSource
	clock       clock.Clock
	logger      logger.Logger
	rejectStale bool

	mu          sync.Mutex
	current     *ImageUpdate
	subscribers map[uint64]chan ImageUpdate
	nextID      uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithStaleUpdateRejection drops updates whose fetch started before the
// current value's. Without it the last call wins.
func WithStaleUpdateRejection() Option {
	return func(c *Coordinator) {
		c.rejectStale = true
	}
}

func New(source MetadataSource, clk clock.Clock, log logger.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		source:      source,
		clock:       clk,
		logger:      log,
		subscribers: make(map[uint64]chan ImageUpdate),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// UpdateImage publishes a new value stamped with the current time.
func (c *Coordinator) UpdateImage(url string, refreshIntervalSecs *int64, errorMessage string) {
	c.UpdateImageFrom(c.clock.Now(), url, refreshIntervalSecs, errorMessage)
}

// UpdateImageFrom publishes a value produced by a fetch that started at
// startedAt. It reports false when the update was rejected as stale.
func (c *Coordinator) UpdateImageFrom(startedAt time.Time, url string, refreshIntervalSecs *int64, errorMessage string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rejectStale && c.current != nil && startedAt.Before(c.current.StartedAt) {
		c.logger.Info().
			Str("url", url).
			Time("started_at", startedAt).
			Time("current_started_at", c.current.StartedAt).
			Msg("Dropping stale image update")

		return false
	}

	c.setLocked(&ImageUpdate{
		URL:                 url,
		RefreshIntervalSecs: refreshIntervalSecs,
		ErrorMessage:        errorMessage,
		StartedAt:           startedAt,
		UpdatedAt:           c.clock.Now(),
	})

	return true
}

// Initialize seeds the broadcast from the persisted cache unless a value is
// already present. It is safe to call repeatedly.
func (c *Coordinator) Initialize(ctx context.Context) error {
	c.mu.Lock()
	seeded := c.current != nil
	c.mu.Unlock()

	if seeded {
		return nil
	}

	meta, err := c.source.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cached image: %w", err)
	}

	if meta == nil || meta.URL == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return nil
	}

	c.setLocked(&ImageUpdate{
		URL:                 meta.URL,
		RefreshIntervalSecs: meta.RefreshIntervalSecs,
		ErrorMessage:        meta.ErrorMessage,
		StartedAt:           time.UnixMilli(meta.Timestamp),
		UpdatedAt:           c.clock.Now(),
		FromCache:           true,
	})

	c.logger.Debug().Str("url", meta.URL).Msg("Seeded image from cache")

	return nil
}

// Current returns the latest value, if any.
func (c *Coordinator) Current() (ImageUpdate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return ImageUpdate{}, false
	}

	return *c.current, true
}

// Subscribe delivers the current value, if any, followed by every later
// update. A slow reader only sees the newest pending value. The channel
// closes when ctx is done.
func (c *Coordinator) Subscribe(ctx context.Context) <-chan ImageUpdate {
	ch := make(chan ImageUpdate, 1)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = ch

	if c.current != nil {
		ch <- *c.current
	}
	c.mu.Unlock()

	go func() {
		<-ctx.Done()

		c.mu.Lock()
		delete(c.subscribers, id)
		close(ch)
		c.mu.Unlock()
	}()

	return ch
}

// setLocked must be called with c.mu held.
func (c *Coordinator) setLocked(update *ImageUpdate) {
	c.current = update

	for _, ch := range c.subscribers {
		offerLatest(ch, *update)
	}
}

func offerLatest(ch chan ImageUpdate, v ImageUpdate) {
	select {
	case ch <- v:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- v:
	default:
	}
}

var _ ImageUpdater = (*Coordinator)(nil)
