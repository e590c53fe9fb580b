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

// Package mirror wires the display client, the image coordinator and the
// refresh jobs into the long-running inkmirror service.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/coordinator"
	"github.com/carverauto/inkmirror/pkg/display"
	"github.com/carverauto/inkmirror/pkg/events"
	inkhttp "github.com/carverauto/inkmirror/pkg/http"
	"github.com/carverauto/inkmirror/pkg/jobs"
	"github.com/carverauto/inkmirror/pkg/kv"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
	"github.com/carverauto/inkmirror/pkg/scheduler"
	"github.com/carverauto/inkmirror/pkg/store"
	"github.com/carverauto/inkmirror/pkg/transport"
	"github.com/carverauto/inkmirror/pkg/worker"
)

var (
	errEventsNeedJetStream = errors.New("events require the embedded or nats kv backend")
	errNilConfig           = errors.New("config is required")
)

// Service owns every inkmirror component.
type Service struct {
	config *Config
	logger logger.Logger
	clock  clock.Clock

	kv        kv.KVStore
	devices   *store.DeviceConfigStore
	cache     *store.ImageMetadataStore
	history   *store.RefreshLogStore
	images    *coordinator.Coordinator
	runner    *jobs.Runner
	scheduler *scheduler.Scheduler
	worker    *worker.RefreshWorker
	events    *events.Publisher
	status    *inkhttp.Server

	lastDevice *models.DeviceConfig
	closeOnce  sync.Once
}

type options struct {
	clock   clock.Clock
	kv      kv.KVStore
	network jobs.NetworkMonitor
	backoff []transport.RateLimitOption
}

// Option customises a Service, mostly for tests.
type Option func(*options)

// WithClock replaces the real clock.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

// WithKVStore uses store instead of opening the configured backend. The
// Service takes ownership and closes it.
func WithKVStore(kvs kv.KVStore) Option {
	return func(o *options) { o.kv = kvs }
}

// WithNetworkMonitor overrides the configured network probe.
func WithNetworkMonitor(m jobs.NetworkMonitor) Option {
	return func(o *options) { o.network = m }
}

// WithRateLimitOptions tunes the 429 retry transport.
func WithRateLimitOptions(opts ...transport.RateLimitOption) Option {
	return func(o *options) { o.backoff = append(o.backoff, opts...) }
}

// New builds the service. Nothing runs until Start or Run.
func New(ctx context.Context, cfg *Config, log logger.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errNilConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{clock: clock.Real()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Service{config: cfg, logger: log, clock: o.clock}

	kvStore := o.kv
	if kvStore == nil {
		var err error

		kvStore, err = kv.Open(ctx, &cfg.KV, logger.NewComponentLogger(log, "kv"))
		if err != nil {
			return nil, fmt.Errorf("failed to open kv store: %w", err)
		}
	}

	s.kv = kvStore

	if err := s.build(ctx, o); err != nil {
		_ = kvStore.Close()

		return nil, err
	}

	return s, nil
}

func (s *Service) build(ctx context.Context, o options) error {
	cfg := s.config
	log := s.logger

	s.devices = store.NewDeviceConfigStore(s.kv, log)
	s.cache = store.NewImageMetadataStore(s.kv, s.clock, log)
	s.history = store.NewRefreshLogStore(s.kv, log)

	httpClient, err := transport.NewHTTPClient(cfg.Client, s.clock, logger.NewComponentLogger(log, "transport"), o.backoff...)
	if err != nil {
		return err
	}

	repo := display.NewRepository(
		display.NewClient(httpClient, s.clock, logger.NewComponentLogger(log, "display")),
		s.cache,
		log,
		display.WithFakeAPI(cfg.FakeAPI),
	)

	var coordOpts []coordinator.Option
	if cfg.RejectStaleUpdates {
		coordOpts = append(coordOpts, coordinator.WithStaleUpdateRejection())
	}

	s.images = coordinator.New(s.cache, s.clock, logger.NewComponentLogger(log, "coordinator"), coordOpts...)

	network := o.network
	if network == nil {
		network = jobs.AlwaysOnline()
		if cfg.NetworkProbe != "" {
			network = jobs.NewDialProbe(cfg.NetworkProbe, 0)
		}
	}

	runnerOpts := []jobs.Option{jobs.WithClock(s.clock), jobs.WithNetworkMonitor(network)}
	if cfg.BlockedPollInterval > 0 {
		runnerOpts = append(runnerOpts, jobs.WithBlockedPollInterval(cfg.BlockedPollInterval.Std()))
	}

	s.runner = jobs.NewRunner(logger.NewComponentLogger(log, "jobs"), runnerOpts...)

	// the scheduler needs the worker and the worker needs the scheduler
	dispatch := jobs.WorkerFunc(func(ctx context.Context, params jobs.Params) jobs.Result {
		return s.worker.DoWork(ctx, params)
	})

	sched, err := scheduler.New(s.runner, s.devices, dispatch, logger.NewComponentLogger(log, "scheduler"))
	if err != nil {
		return err
	}

	s.scheduler = sched

	deps := worker.Dependencies{
		Repository: repo,
		Configs:    s.devices,
		Scheduler:  sched,
		RefreshLog: s.history,
		Images:     s.images,
		Clock:      s.clock,
		Logger:     logger.NewComponentLogger(log, "worker"),
	}

	if cfg.Events.Enabled {
		pub, err := s.newPublisher(ctx)
		if err != nil {
			return err
		}

		s.events = pub
		deps.Events = pub
	}

	s.worker, err = worker.New(deps)
	if err != nil {
		return err
	}

	if cfg.HTTP.Enabled {
		s.status, err = inkhttp.NewServer(&cfg.HTTP, inkhttp.Dependencies{
			Images:  s.images,
			Devices: s.devices,
			Cache:   s.cache,
			History: s.history,
			Refresh: s.scheduler,
			Clock:   s.clock,
			Logger:  logger.NewComponentLogger(log, "http"),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) newPublisher(ctx context.Context) (*events.Publisher, error) {
	ns, ok := s.kv.(*kv.NatsStore)
	if !ok {
		return nil, errEventsNeedJetStream
	}

	return events.NewPublisher(ctx, ns.JetStream(), &s.config.Events, logger.NewComponentLogger(s.logger, "events"))
}

// Start launches the job runner and performs the cold-start sequence.
func (s *Service) Start(ctx context.Context) error {
	if err := s.runner.Start(ctx); err != nil {
		return err
	}

	return s.coldStart(ctx)
}

// Run starts the service and blocks until ctx is cancelled or a component fails.
func (s *Service) Run(ctx context.Context) error {
	defer func() {
		if err := s.Stop(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error().Err(err).Msg("Error stopping service")
		}
	}()

	if err := s.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.observeOneTimeWork(gctx) })
	g.Go(func() error { return s.watchDeviceConfig(gctx) })

	if s.status != nil {
		g.Go(func() error { return s.status.ListenAndServe(gctx) })
	}

	s.logger.Info().Msg("inkmirror running")

	return g.Wait()
}

// Stop waits for running jobs and releases the store.
func (s *Service) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.StopTimeout.Std())
	defer cancel()

	runnerErr := s.runner.Stop(ctx)

	var closeErr error

	s.closeOnce.Do(func() { closeErr = s.kv.Close() })

	return errors.Join(runnerErr, closeErr)
}

// coldStart seeds the broadcast from the cache, schedules periodic work for a
// configured device and fetches immediately when the cache is stale.
func (s *Service) coldStart(ctx context.Context) error {
	if err := s.images.Initialize(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Could not seed image from cache")
	}

	cfg, err := s.devices.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load device config: %w", err)
	}

	s.lastDevice = cfg

	if !cfg.HasToken() {
		s.logger.Info().Msg("No device configured; waiting for settings")

		return nil
	}

	if err := s.scheduler.ScheduleImageRefreshWork(ctx, cfg.RefreshRate(scheduler.DefaultRefreshRateSecs)); err != nil {
		return err
	}

	valid, err := s.cache.HasValidImageURL(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Could not read image cache")
	}

	if valid {
		return nil
	}

	s.logger.Info().Msg("Cached image missing or expired, refreshing now")

	return s.scheduler.StartOneTimeImageRefreshWork(ctx, false)
}

// observeOneTimeWork pushes successful one-time results into the broadcast.
// Periodic results are pushed by the worker itself.
func (s *Service) observeOneTimeWork(ctx context.Context) error {
	infos, err := s.scheduler.WatchOneTimeWork(ctx)
	if err != nil {
		return err
	}

	var lastID string

	for info := range infos {
		if info.State != jobs.StateSucceeded || info.ID == lastID {
			continue
		}

		lastID = info.ID
		s.publishOneTimeResult(ctx, info)
	}

	return nil
}

func (s *Service) publishOneTimeResult(ctx context.Context, info jobs.Info) {
	url := info.Output.String(worker.OutputImageURL)
	if url == "" {
		return
	}

	rate := s.refreshRateFor(ctx, url)

	startedAt, err := time.Parse(time.RFC3339Nano, info.Output.String(worker.OutputStartedAt))
	if err != nil {
		s.images.UpdateImage(url, rate, "")

		return
	}

	if !s.images.UpdateImageFrom(startedAt, url, rate, "") {
		s.logger.Debug().Str("job_id", info.ID).Msg("One-time result superseded by a newer image")
	}
}

// refreshRateFor prefers the rate cached with url and falls back to the stored device rate.
func (s *Service) refreshRateFor(ctx context.Context, url string) *int64 {
	if meta, err := s.cache.Get(ctx); err == nil && meta != nil && meta.URL == url {
		return meta.RefreshIntervalSecs
	}

	if cfg, err := s.devices.Get(ctx); err == nil && cfg != nil {
		return cfg.RefreshRateSecs
	}

	return nil
}

// watchDeviceConfig reacts to settings saved while the service runs, for
// example by the CLI against a shared NATS store.
func (s *Service) watchDeviceConfig(ctx context.Context) error {
	updates, err := s.devices.Watch(ctx)
	if err != nil {
		return err
	}

	for cfg := range updates {
		s.applyDeviceConfig(ctx, cfg)
	}

	return nil
}

func (s *Service) applyDeviceConfig(ctx context.Context, cfg *models.DeviceConfig) {
	prev := s.lastDevice
	s.lastDevice = cfg

	if !cfg.HasToken() {
		if prev.HasToken() {
			s.logger.Info().Msg("Device config cleared, cancelling refresh work")
			s.scheduler.CancelImageRefreshWork()
		}

		return
	}

	rate := cfg.RefreshRate(scheduler.DefaultRefreshRateSecs)

	if !s.periodicMatches(rate) {
		if err := s.scheduler.ScheduleImageRefreshWork(ctx, rate); err != nil {
			s.logger.Error().Err(err).Msg("Failed to reschedule refresh work")
		}
	}

	if credentialsChanged(prev, cfg) {
		s.logger.Info().Str("device_type", cfg.Type.String()).Msg("Device settings changed, refreshing now")

		if err := s.scheduler.StartOneTimeImageRefreshWork(ctx, false); err != nil {
			s.logger.Error().Err(err).Msg("Failed to start refresh after settings change")
		}
	}
}

func (s *Service) periodicMatches(rate int64) bool {
	info, ok := s.scheduler.PeriodicWorkInfo()

	return ok && !info.State.IsFinished() && info.Interval == scheduler.EffectiveInterval(rate)
}

// credentialsChanged ignores the refresh rate, which the worker adjusts on its own.
func credentialsChanged(prev, next *models.DeviceConfig) bool {
	if !prev.HasToken() {
		return next.HasToken()
	}

	return prev.Type != next.Type ||
		prev.APIBaseURL != next.APIBaseURL ||
		prev.APIAccessToken != next.APIAccessToken ||
		prev.DeviceMacID != next.DeviceMacID ||
		masterFlag(prev) != masterFlag(next)
}

func masterFlag(c *models.DeviceConfig) bool {
	return c.IsMasterDevice == nil || *c.IsMasterDevice
}

// RefreshOnce runs a single one-time refresh in the calling goroutine.
func (s *Service) RefreshOnce(ctx context.Context, loadNextPlaylistImage bool) jobs.Result {
	// rate adaptation reschedules through the runner
	if err := s.runner.Start(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Job runner unavailable; refresh rate changes will apply on next start")
	}

	return s.worker.DoWork(ctx, jobs.Params{
		ID:   "manual",
		Name: scheduler.OneTimeWorkName,
		Tags: []string{scheduler.OneTimeWorkTag},
		Input: jobs.Data{
			scheduler.KeyWorkType:              string(models.WorkTypeOneTime),
			scheduler.KeyLoadNextPlaylistImage: strconv.FormatBool(loadNextPlaylistImage),
		},
	})
}

// Devices exposes the device settings store.
func (s *Service) Devices() *store.DeviceConfigStore { return s.devices }

// ImageCache exposes the persisted image metadata.
func (s *Service) ImageCache() *store.ImageMetadataStore { return s.cache }

// RefreshLog exposes the refresh history.
func (s *Service) RefreshLog() *store.RefreshLogStore { return s.history }

// Images exposes the in-memory image broadcast.
func (s *Service) Images() *coordinator.Coordinator { return s.images }

// Scheduler exposes the refresh scheduler.
func (s *Service) Scheduler() *scheduler.Scheduler { return s.scheduler }
