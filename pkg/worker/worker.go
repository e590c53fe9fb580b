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

// Package worker performs one fetch-and-update cycle per refresh job invocation.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/coordinator"
	"github.com/carverauto/inkmirror/pkg/display"
	"github.com/carverauto/inkmirror/pkg/jobs"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
	"github.com/carverauto/inkmirror/pkg/scheduler"
)

//go:generate mockgen -destination=mock_worker.go -package=worker github.com/carverauto/inkmirror/pkg/worker ConfigSource,Rescheduler,RefreshLog,EventPublisher

const (
	// NoDeviceConfigMessage is the failure reported when no usable device config exists.
	NoDeviceConfigMessage = "No device config with API token found"

	// Output keys of a refresh job result.
	OutputImageURL      = "image_url"
	OutputError         = "error"
	OutputSetupRequired = "setup_required"
	OutputStartedAt     = "started_at"

	emptyImageMessage = "No image URL in response"

	instrumentationName = "github.com/carverauto/inkmirror/pkg/worker"
)

var (
	errMissingRepository = errors.New("display repository is required")
	errMissingConfigs    = errors.New("config source is required")
	errMissingScheduler  = errors.New("rescheduler is required")
	errMissingRefreshLog = errors.New("refresh log is required")
	errMissingImages     = errors.New("image updater is required")
)

// ConfigSource loads the device registration.
type ConfigSource interface {
	Get(ctx context.Context) (*models.DeviceConfig, error)
}

// Rescheduler persists a new refresh interval and reschedules periodic work.
type Rescheduler interface {
	UpdateRefreshInterval(ctx context.Context, intervalSecs int64) error
}

// RefreshLog records every refresh outcome.
type RefreshLog interface {
	Append(ctx context.Context, entry *models.RefreshLogEntry) error
}

// EventPublisher announces refresh outcomes to other systems.
type EventPublisher interface {
	PublishRefresh(ctx context.Context, entry *models.RefreshLogEntry) error
}

// Dependencies are the collaborators of a RefreshWorker. Events and Clock are optional.
type Dependencies struct {
	Repository display.Repository
	Configs    ConfigSource
	Scheduler  Rescheduler
	RefreshLog RefreshLog
	Images     coordinator.ImageUpdater
	Events     EventPublisher
	Clock      clock.Clock
	Logger     logger.Logger
}

func (d *Dependencies) validate() error {
	switch {
	case d.Repository == nil:
		return errMissingRepository
	case d.Configs == nil:
		return errMissingConfigs
	case d.Scheduler == nil:
		return errMissingScheduler
	case d.RefreshLog == nil:
		return errMissingRefreshLog
	case d.Images == nil:
		return errMissingImages
	}

	return nil
}

// RefreshWorker implements jobs.Worker for image refresh jobs.
type RefreshWorker struct {
	repo       display.Repository
	configs    ConfigSource
	scheduler  Rescheduler
	refreshLog RefreshLog
	images     coordinator.ImageUpdater
	events     EventPublisher
	clock      clock.Clock
	logger     logger.Logger

	tracer   trace.Tracer
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

var _ jobs.Worker = (*RefreshWorker)(nil)

func New(deps Dependencies) (*RefreshWorker, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}

	w := &RefreshWorker{
		repo:       deps.Repository,
		configs:    deps.Configs,
		scheduler:  deps.Scheduler,
		refreshLog: deps.RefreshLog,
		images:     deps.Images,
		events:     deps.Events,
		clock:      deps.Clock,
		logger:     deps.Logger,
		tracer:     otel.Tracer(instrumentationName),
	}

	meter := otel.Meter(instrumentationName)

	attempts, err := meter.Int64Counter(
		"inkmirror.refresh.attempts",
		metric.WithDescription("Refresh job invocations by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh attempts counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"inkmirror.refresh.duration",
		metric.WithDescription("Duration of refresh job invocations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh duration histogram: %w", err)
	}

	w.attempts = attempts
	w.duration = duration

	return w, nil
}

// invocation carries the per-run facts needed to record an outcome.
type invocation struct {
	startedAt  time.Time
	workType   models.WorkType
	deviceType models.DeviceType
}

// DoWork runs one refresh. Every outcome is written to the refresh log and
// returned as a result; nothing is propagated as an error or panic.
func (w *RefreshWorker) DoWork(ctx context.Context, params jobs.Params) (result jobs.Result) {
	inv := &invocation{
		startedAt: w.clock.Now(),
		workType:  models.ParseWorkType(params.Input.String(scheduler.KeyWorkType)),
	}
	loadNext := params.Input.Bool(scheduler.KeyLoadNextPlaylistImage)

	ctx, span := w.tracer.Start(ctx, "refresh.work", trace.WithAttributes(
		attribute.String("job.id", params.ID),
		attribute.String("work_type", string(inv.workType)),
		attribute.Bool("load_next", loadNext),
		attribute.Int("run_attempt", params.RunAttempt),
	))
	defer span.End()

	defer func() {
		if p := recover(); p != nil {
			w.logger.Error().
				Interface("panic", p).
				Bytes("stack", debug.Stack()).
				Str("work_type", string(inv.workType)).
				Msg("Refresh worker panicked")

			result = w.fail(ctx, inv, fmt.Sprintf("Unexpected error: %v", p), nil, false)
		}
	}()

	cfg, err := w.configs.Get(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to load device config")
	}

	if err != nil || !cfg.HasToken() {
		return w.fail(ctx, inv, NoDeviceConfigMessage, nil, false)
	}

	inv.deviceType = cfg.Type
	span.SetAttributes(attribute.String("device_type", cfg.Type.String()))

	var info *models.DisplayInfo
	if loadNext {
		info = w.repo.GetNextDisplayData(ctx, cfg)
	} else {
		info = w.repo.GetCurrentDisplayData(ctx, cfg)
	}

	if info.IsHTTPError() || !info.Usable() {
		msg := info.Error
		if msg == "" {
			msg = emptyImageMessage
		}

		return w.fail(ctx, inv, msg, info.HTTPResponseMetadata, info.SetupRequired)
	}

	entry := models.NewSuccessLogEntry(w.clock.Now(), info, inv.workType)
	w.record(ctx, inv, &entry)

	w.adaptRefreshRate(ctx, cfg, info)

	if params.HasTag(scheduler.PeriodicWorkTag) {
		w.images.UpdateImageFrom(inv.startedAt, info.ImageURL, info.RefreshIntervalSeconds, "")
	}

	w.logger.Info().
		Str("work_type", string(inv.workType)).
		Str("device_type", cfg.Type.String()).
		Str("image_url", info.ImageURL).
		Int64("refresh_rate", info.RefreshInterval()).
		Msg("Image refresh succeeded")

	return jobs.Success(jobs.Data{
		OutputImageURL:  info.ImageURL,
		OutputStartedAt: inv.startedAt.Format(time.RFC3339Nano),
	})
}

// adaptRefreshRate treats the server as authoritative for cadence.
func (w *RefreshWorker) adaptRefreshRate(ctx context.Context, cfg *models.DeviceConfig, info *models.DisplayInfo) {
	server := info.RefreshInterval()
	if server <= 0 {
		return
	}

	if cfg.RefreshRateSecs != nil && *cfg.RefreshRateSecs == server {
		return
	}

	w.logger.Info().
		Int64("previous", cfg.RefreshRate(0)).
		Int64("current", server).
		Msg("Server refresh rate changed, rescheduling")

	if err := w.scheduler.UpdateRefreshInterval(ctx, server); err != nil {
		w.logger.Warn().Err(err).Int64("refresh_rate", server).Msg("Failed to reschedule periodic refresh")
	}
}

func (w *RefreshWorker) fail(
	ctx context.Context, inv *invocation, msg string, meta *models.HTTPResponseMetadata, setupRequired bool,
) jobs.Result {
	entry := models.NewFailureLogEntry(w.clock.Now(), inv.deviceType, msg, inv.workType, meta)
	w.record(ctx, inv, &entry)

	trace.SpanFromContext(ctx).SetStatus(codes.Error, msg)

	w.logger.Warn().
		Str("work_type", string(inv.workType)).
		Str("device_type", inv.deviceType.String()).
		Bool("setup_required", setupRequired).
		Str("error", msg).
		Msg("Image refresh failed")

	out := jobs.Data{OutputError: msg}
	if setupRequired {
		out[OutputSetupRequired] = "true"
	}

	return jobs.Failure(out)
}

// record writes the outcome to the refresh log, events and metrics. Failures here are logged only.
func (w *RefreshWorker) record(ctx context.Context, inv *invocation, entry *models.RefreshLogEntry) {
	if err := w.refreshLog.Append(ctx, entry); err != nil {
		w.logger.Warn().Err(err).Msg("Failed to append refresh log entry")
	}

	if w.events != nil {
		if err := w.events.PublishRefresh(ctx, entry); err != nil {
			w.logger.Warn().Err(err).Msg("Failed to publish refresh event")
		}
	}

	outcome := "failure"
	if entry.Success {
		outcome = "success"
	}

	attrs := metric.WithAttributes(
		attribute.String("work_type", string(inv.workType)),
		attribute.String("result", outcome),
		attribute.String("device_type", inv.deviceType.String()),
	)

	w.attempts.Add(ctx, 1, attrs)
	w.duration.Record(ctx, w.clock.Now().Sub(inv.startedAt).Seconds(), attrs)
}
