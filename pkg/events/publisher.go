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

// Package events publishes refresh outcomes as CloudEvents to a JetStream stream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
)

const (
	DefaultStreamName = "INKMIRROR_EVENTS"

	// RefreshSubjects matches every refresh outcome subject.
	RefreshSubjects = "inkmirror.refresh.>"

	TypeRefreshSucceeded = "com.carverauto.inkmirror.refresh.succeeded"
	TypeRefreshFailed    = "com.carverauto.inkmirror.refresh.failed"

	subjectSucceeded = "inkmirror.refresh.succeeded"
	subjectFailed    = "inkmirror.refresh.failed"

	defaultSource = "inkmirror/worker"
)

var errNilEntry = errors.New("refresh log entry is required")

// Config controls event publication.
type Config struct {
	Enabled bool   `json:"enabled"`
	Stream  string `json:"stream,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Validate applies defaults.
func (c *Config) Validate() error {
	if c.Stream == "" {
		c.Stream = DefaultStreamName
	}

	if c.Source == "" {
		c.Source = defaultSource
	}

	return nil
}

// Publisher writes refresh CloudEvents to JetStream.
type Publisher struct {
	js     jetstream.JetStream
	stream string
	source string
	logger logger.Logger
}

// NewPublisher ensures the stream exists and captures the refresh subjects, then returns a Publisher.
func NewPublisher(ctx context.Context, js jetstream.JetStream, cfg *Config, log logger.Logger) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureStream(ctx, js, cfg.Stream, RefreshSubjects); err != nil {
		return nil, err
	}

	return &Publisher{
		js:     js,
		stream: cfg.Stream,
		source: cfg.Source,
		logger: log,
	}, nil
}

// ensureStream creates the stream, or widens an existing one so it captures subject.
func ensureStream(ctx context.Context, js jetstream.JetStream, name, subject string) error {
	stream, err := js.Stream(ctx, name)
	if err != nil {
		if !errors.Is(err, jetstream.ErrStreamNotFound) {
			return fmt.Errorf("failed to look up stream %s: %w", name, err)
		}

		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}

		return nil
	}

	cfg := stream.CachedInfo().Config

	subjects := ensureSubjectList(slices.Clone(cfg.Subjects), subject)
	if len(subjects) == len(cfg.Subjects) {
		return nil
	}

	cfg.Subjects = subjects

	if _, err := js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to update stream %s subjects: %w", name, err)
	}

	return nil
}

// PublishRefresh publishes one refresh outcome.
func (p *Publisher) PublishRefresh(ctx context.Context, entry *models.RefreshLogEntry) error {
	if entry == nil {
		return errNilEntry
	}

	eventType, subject := TypeRefreshFailed, subjectFailed
	if entry.Success {
		eventType, subject = TypeRefreshSucceeded, subjectSucceeded
	}

	event := models.NewJSONCloudEvent(uuid.NewString(), p.source, eventType, subject, entry.Time(), entry)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh event: %w", err)
	}

	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish refresh event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", subject).
		Uint64("seq", ack.Sequence).
		Msg("Published refresh event")

	return nil
}

func ensureSubjectList(subjects []string, subject string) []string {
	for _, s := range subjects {
		if matchesSubject(s, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether pattern covers subject using NATS token wildcards.
func matchesSubject(pattern, subject string) bool {
	if pattern == subject {
		return true
	}

	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, tok := range pt {
		switch {
		case tok == ">":
			return i < len(st)
		case i >= len(st):
			return false
		case tok == "*", tok == st[i]:
		default:
			return false
		}
	}

	return len(pt) == len(st)
}
