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

// Package scheduler decides when image refresh jobs run and what they fetch.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/carverauto/inkmirror/pkg/jobs"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
)

//go:generate mockgen -destination=mock_scheduler.go -package=scheduler github.com/carverauto/inkmirror/pkg/scheduler JobRunner,ConfigStore

const (
	PeriodicWorkName = "image_refresh_periodic_work"
	OneTimeWorkName  = "image_refresh_one_time_work"

	PeriodicWorkTag = "periodic-image-refresh"
	OneTimeWorkTag  = "one-time-image-refresh"

	// KeyWorkType and KeyLoadNextPlaylistImage are the job input keys.
	KeyWorkType              = "work_type"
	KeyLoadNextPlaylistImage = "load_next_playlist_image"

	// ExtraWaitBuffer gives the remote renderer time to finish before polling.
	ExtraWaitBuffer = 60 * time.Second
	// MinPeriodicInterval is the smallest periodic cadence the job system accepts.
	MinPeriodicInterval = 15 * time.Minute

	// DefaultRefreshRateSecs is used when the device has no stored refresh rate.
	DefaultRefreshRateSecs int64 = 1800

	defaultInitialBackoff = 30 * time.Second
	defaultMaxAttempts    = 3
)

var errNilWorker = errors.New("refresh worker is required")

// JobRunner is the job submission surface.
type JobRunner interface {
	EnqueuePeriodic(req jobs.PeriodicRequest) (string, error)
	EnqueueOneTime(req jobs.OneTimeRequest) (string, error)
	Cancel(name string)
	Watch(ctx context.Context, name string) (<-chan jobs.Info, error)
	Info(name string) (jobs.Info, bool)
}

// ConfigStore is the part of the device config store the scheduler needs.
type ConfigStore interface {
	Get(ctx context.Context) (*models.DeviceConfig, error)
	SaveRefreshRate(ctx context.Context, secs int64) error
}

// Scheduler owns the periodic and one-time refresh job identities.
type Scheduler struct {
	runner  JobRunner
	configs ConfigStore
	worker  jobs.Worker
	logger  logger.Logger
}

func New(runner JobRunner, configs ConfigStore, worker jobs.Worker, log logger.Logger) (*Scheduler, error) {
	if worker == nil {
		return nil, errNilWorker
	}

	return &Scheduler{
		runner:  runner,
		configs: configs,
		worker:  worker,
		logger:  log,
	}, nil
}

// EffectiveInterval converts a requested refresh interval into the periodic cadence:
// the interval plus ExtraWaitBuffer, floored to whole minutes, never below MinPeriodicInterval.
func EffectiveInterval(intervalSecs int64) time.Duration {
	if intervalSecs < 0 {
		intervalSecs = 0
	}

	minutes := (time.Duration(intervalSecs)*time.Second + ExtraWaitBuffer) / time.Minute

	return max(minutes*time.Minute, MinPeriodicInterval)
}

// ScheduleImageRefreshWork creates or updates the periodic refresh job. Without a
// device token it does nothing.
func (s *Scheduler) ScheduleImageRefreshWork(ctx context.Context, intervalSecs int64) error {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load device config: %w", err)
	}

	if !cfg.HasToken() {
		s.logger.Debug().Msg("No device token, periodic refresh not scheduled")

		return nil
	}

	advance := cfg.PlaylistMode().AdvancesPlaylist()
	interval := EffectiveInterval(intervalSecs)

	_, err = s.runner.EnqueuePeriodic(jobs.PeriodicRequest{
		Name:        PeriodicWorkName,
		Worker:      s.worker,
		Interval:    interval,
		Tags:        []string{PeriodicWorkTag},
		Input:       workInput(models.WorkTypePeriodic, advance),
		Constraints: jobs.Constraints{RequiresNetwork: true},
		Backoff:     backoffPolicy(),
		Policy:      jobs.PolicyUpdate,
	})
	if err != nil {
		return fmt.Errorf("failed to schedule periodic refresh: %w", err)
	}

	s.logger.Info().
		Int64("requested_secs", intervalSecs).
		Dur("interval", interval).
		Bool("advance_playlist", advance).
		Str("device_type", cfg.Type.String()).
		Msg("Scheduled periodic image refresh")

	return nil
}

// StartOneTimeImageRefreshWork replaces any pending one-time refresh with a new one.
// loadNextPlaylistImage overrides the device-type default.
func (s *Scheduler) StartOneTimeImageRefreshWork(_ context.Context, loadNextPlaylistImage bool) error {
	_, err := s.runner.EnqueueOneTime(jobs.OneTimeRequest{
		Name:        OneTimeWorkName,
		Worker:      s.worker,
		Tags:        []string{OneTimeWorkTag},
		Input:       workInput(models.WorkTypeOneTime, loadNextPlaylistImage),
		Constraints: jobs.Constraints{RequiresNetwork: true},
		Backoff:     backoffPolicy(),
		Policy:      jobs.PolicyReplace,
	})
	if err != nil {
		return fmt.Errorf("failed to start one-time refresh: %w", err)
	}

	s.logger.Info().Bool("load_next", loadNextPlaylistImage).Msg("Started one-time image refresh")

	return nil
}

// UpdateRefreshInterval persists the new interval and reschedules the periodic job.
func (s *Scheduler) UpdateRefreshInterval(ctx context.Context, intervalSecs int64) error {
	if err := s.configs.SaveRefreshRate(ctx, intervalSecs); err != nil {
		return fmt.Errorf("failed to save refresh rate: %w", err)
	}

	return s.ScheduleImageRefreshWork(ctx, intervalSecs)
}

// CancelImageRefreshWork cancels both refresh jobs.
func (s *Scheduler) CancelImageRefreshWork() {
	s.runner.Cancel(PeriodicWorkName)
	s.runner.Cancel(OneTimeWorkName)

	s.logger.Info().Msg("Cancelled image refresh work")
}

func (s *Scheduler) WatchPeriodicWork(ctx context.Context) (<-chan jobs.Info, error) {
	return s.runner.Watch(ctx, PeriodicWorkName)
}

func (s *Scheduler) WatchOneTimeWork(ctx context.Context) (<-chan jobs.Info, error) {
	return s.runner.Watch(ctx, OneTimeWorkName)
}

// PeriodicWorkInfo and OneTimeWorkInfo return the latest job snapshots.
func (s *Scheduler) PeriodicWorkInfo() (jobs.Info, bool) {
	return s.runner.Info(PeriodicWorkName)
}

func (s *Scheduler) OneTimeWorkInfo() (jobs.Info, bool) {
	return s.runner.Info(OneTimeWorkName)
}

func workInput(workType models.WorkType, loadNext bool) jobs.Data {
	return jobs.Data{
		KeyWorkType:              string(workType),
		KeyLoadNextPlaylistImage: strconv.FormatBool(loadNext),
	}
}

func backoffPolicy() jobs.BackoffPolicy {
	return jobs.BackoffPolicy{
		InitialDelay: defaultInitialBackoff,
		MaxAttempts:  defaultMaxAttempts,
	}
}
