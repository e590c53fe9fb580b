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

package jobs

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

var (
	ErrNotStarted = errors.New("job runner not started")
	ErrStopped    = errors.New("job runner stopped")

	errMissingName     = errors.New("job name is required")
	errMissingWorker   = errors.New("job worker is required")
	errInvalidInterval = errors.New("periodic interval must be at least one second")
	errRetryRequested  = errors.New("worker requested retry")
	errWorkFailed      = errors.New("worker reported failure")
)

const defaultBlockedPollInterval = 30 * time.Second

// Option configures a Runner.
type Option func(*Runner)

func WithClock(clk clock.Clock) Option {
	return func(r *Runner) {
		r.clock = clk
	}
}

func WithNetworkMonitor(m NetworkMonitor) Option {
	return func(r *Runner) {
		r.network = m
	}
}

// WithBlockedPollInterval sets how often a BLOCKED job re-checks its constraints.
func WithBlockedPollInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.blockedPoll = d
		}
	}
}

type definition struct {
	worker      Worker
	tags        []string
	input       Data
	constraints Constraints
	backoff     BackoffPolicy
	interval    time.Duration
}

// handle is one enqueued identity under a unique name.
type handle struct {
	id       string
	name     string
	periodic bool
	def      definition
	entryID  cron.EntryID
	ctx      context.Context
	cancel   context.CancelFunc
	running  atomic.Bool
	info     Info
}

// Runner executes named jobs. At most one job identity is current per name; submitting
// under a taken name resolves the conflict with the request's ExistingWorkPolicy.
// Only the current identity for a name publishes state to watchers.
type Runner struct {
	logger      logger.Logger
	clock       clock.Clock
	network     NetworkMonitor
	blockedPoll time.Duration
	cron        *cron.Cron

	mu       sync.Mutex
	baseCtx  context.Context
	stopBase context.CancelFunc
	started  bool
	stopped  bool
	jobs     map[string]*handle
	watchers map[string]map[chan Info]struct{}

	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

// NewRunner creates a Runner. Periodic schedules are driven by cron with panic recovery
// and overlapping-run suppression.
func NewRunner(log logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		logger:      log,
		clock:       clock.Real(),
		network:     AlwaysOnline(),
		blockedPoll: defaultBlockedPollInterval,
		jobs:        make(map[string]*handle),
		watchers:    make(map[string]map[chan Info]struct{}),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	cl := cronLogger{log: log}
	r.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return r
}

// Start begins executing jobs. Cancelling ctx cancels every job.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrStopped
	}

	if r.started {
		return nil
	}

	r.baseCtx, r.stopBase = context.WithCancel(ctx)
	r.started = true
	r.cron.Start()

	r.logger.Info().Msg("Job runner started")

	return nil
}

// Stop cancels all jobs, waits for in-flight runs to return and closes every watch channel.
func (r *Runner) Stop(ctx context.Context) error {
	defer r.doneOnce.Do(func() { close(r.done) })

	r.mu.Lock()

	if !r.started || r.stopped {
		r.stopped = true
		r.mu.Unlock()

		return nil
	}

	r.stopped = true
	r.stopBase()
	r.mu.Unlock()

	cronCtx := r.cron.Stop()
	done := make(chan struct{})

	go func() {
		<-cronCtx.Done()
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for jobs to stop: %w", ctx.Err())
	}

	r.mu.Lock()
	for name, set := range r.watchers {
		for ch := range set {
			close(ch)
		}

		delete(r.watchers, name)
	}
	r.mu.Unlock()

	r.logger.Info().Msg("Job runner stopped")

	return nil
}

// EnqueuePeriodic submits recurring work and returns the ID of the identity now current for the name.
func (r *Runner) EnqueuePeriodic(req PeriodicRequest) (string, error) {
	if err := validateRequest(req.Name, req.Worker); err != nil {
		return "", err
	}

	if req.Interval < time.Second {
		return "", fmt.Errorf("%w: %s", errInvalidInterval, req.Interval)
	}

	def := definition{
		worker:      req.Worker,
		tags:        slices.Clone(req.Tags),
		input:       req.Input.clone(),
		constraints: req.Constraints,
		backoff:     req.Backoff.withDefaults(),
		interval:    req.Interval,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.acceptingLocked(); err != nil {
		return "", err
	}

	if existing, ok := r.jobs[req.Name]; ok && !existing.finished() {
		if existing.periodic {
			switch req.Policy {
			case PolicyKeep:
				r.logger.Debug().Str("job", req.Name).Msg("Keeping existing periodic job")

				return existing.id, nil
			case PolicyUpdate:
				existing.def = def
				r.cron.Remove(existing.entryID)
				existing.entryID = r.scheduleLocked(existing)
				r.publishLocked(existing, func(*Info) {})

				r.logger.Info().
					Str("job", req.Name).
					Dur("interval", req.Interval).
					Msg("Updated periodic job")

				return existing.id, nil
			case PolicyReplace:
			}
		}

		r.cancelLocked(existing)
	}

	h := r.newHandleLocked(req.Name, true, def)
	h.entryID = r.scheduleLocked(h)
	r.publishLocked(h, func(i *Info) { i.State = StateEnqueued })

	r.logger.Info().
		Str("job", req.Name).
		Str("id", h.id).
		Dur("interval", req.Interval).
		Msg("Enqueued periodic job")

	return h.id, nil
}

// EnqueueOneTime submits work that runs once, as soon as its constraints hold.
func (r *Runner) EnqueueOneTime(req OneTimeRequest) (string, error) {
	if err := validateRequest(req.Name, req.Worker); err != nil {
		return "", err
	}

	def := definition{
		worker:      req.Worker,
		tags:        slices.Clone(req.Tags),
		input:       req.Input.clone(),
		constraints: req.Constraints,
		backoff:     req.Backoff.withDefaults(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.acceptingLocked(); err != nil {
		return "", err
	}

	if existing, ok := r.jobs[req.Name]; ok && !existing.finished() {
		if !existing.periodic {
			switch req.Policy {
			case PolicyKeep:
				r.logger.Debug().Str("job", req.Name).Msg("Keeping pending one-time job")

				return existing.id, nil
			case PolicyUpdate:
				// takes effect from the next attempt
				existing.def = def
				r.publishLocked(existing, func(*Info) {})

				return existing.id, nil
			case PolicyReplace:
			}
		}

		r.cancelLocked(existing)
	}

	h := r.newHandleLocked(req.Name, false, def)
	r.publishLocked(h, func(i *Info) { i.State = StateEnqueued })

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		r.runOneTime(h)
	}()

	r.logger.Info().Str("job", req.Name).Str("id", h.id).Msg("Enqueued one-time job")

	return h.id, nil
}

// Cancel cancels the current job under name. Unknown or finished names are a no-op.
func (r *Runner) Cancel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.jobs[name]
	if !ok || h.finished() {
		return
	}

	r.cancelLocked(h)
	r.publishLocked(h, func(i *Info) { i.State = StateCancelled })

	r.logger.Info().Str("job", name).Str("id", h.id).Msg("Cancelled job")
}

// Info returns the latest snapshot of the job under name.
func (r *Runner) Info(name string) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.jobs[name]
	if !ok {
		return Info{}, false
	}

	return h.info.clone(), true
}

// Watch streams state changes of the job under name, starting with the current snapshot
// when one exists. A slow reader only observes the latest state. The channel is closed
// when ctx is done or the runner stops.
func (r *Runner) Watch(ctx context.Context, name string) (<-chan Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return nil, ErrStopped
	}

	ch := make(chan Info, 1)

	if h, ok := r.jobs[name]; ok {
		ch <- h.info.clone()
	}

	set, ok := r.watchers[name]
	if !ok {
		set = make(map[chan Info]struct{})
		r.watchers[name] = set
	}

	set[ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-r.done:
		}

		r.mu.Lock()
		defer r.mu.Unlock()

		if set, ok := r.watchers[name]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}

			if len(set) == 0 {
				delete(r.watchers, name)
			}
		}
	}()

	return ch, nil
}

func validateRequest(name string, w Worker) error {
	if name == "" {
		return errMissingName
	}

	if w == nil {
		return errMissingWorker
	}

	return nil
}

func (r *Runner) acceptingLocked() error {
	if r.stopped {
		return ErrStopped
	}

	if !r.started {
		return ErrNotStarted
	}

	return nil
}

func (r *Runner) newHandleLocked(name string, periodic bool, def definition) *handle {
	ctx, cancel := context.WithCancel(r.baseCtx)

	h := &handle{
		id:       uuid.NewString(),
		name:     name,
		periodic: periodic,
		def:      def,
		ctx:      ctx,
		cancel:   cancel,
	}

	r.jobs[name] = h

	return h
}

func (r *Runner) scheduleLocked(h *handle) cron.EntryID {
	return r.cron.Schedule(cron.Every(h.def.interval), cron.FuncJob(func() {
		r.runPeriodic(h)
	}))
}

func (r *Runner) cancelLocked(h *handle) {
	h.cancel()

	if h.periodic && h.entryID != 0 {
		r.cron.Remove(h.entryID)
		h.entryID = 0
	}
}

// publishLocked applies mutate to the handle's snapshot and fans it out when h is current.
func (r *Runner) publishLocked(h *handle, mutate func(*Info)) {
	mutate(&h.info)

	h.info.ID = h.id
	h.info.Name = h.name
	h.info.Periodic = h.periodic
	h.info.Tags = slices.Clone(h.def.tags)
	h.info.Interval = h.def.interval
	h.info.UpdatedAt = r.clock.Now()

	if h.periodic {
		h.info.NextRun = time.Time{}
		if h.entryID != 0 && !h.info.State.IsFinished() {
			h.info.NextRun = r.cron.Entry(h.entryID).Next
		}
	}

	if r.jobs[h.name] != h {
		return
	}

	snapshot := h.info.clone()
	for ch := range r.watchers[h.name] {
		offerLatest(ch, snapshot)
	}
}

func (r *Runner) publish(h *handle, mutate func(*Info)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.publishLocked(h, mutate)
}

func (r *Runner) definition(h *handle) definition {
	r.mu.Lock()
	defer r.mu.Unlock()

	return h.def
}

func (r *Runner) runOneTime(h *handle) {
	state, output := r.execute(h)

	r.mu.Lock()
	defer r.mu.Unlock()

	if h.finished() {
		return
	}

	r.publishLocked(h, func(i *Info) {
		i.State = state
		i.Output = output
	})

	r.logger.Info().Str("job", h.name).Str("id", h.id).Str("state", string(state)).Msg("One-time job finished")
}

func (r *Runner) runPeriodic(h *handle) {
	if h.ctx.Err() != nil {
		return
	}

	if !h.running.CompareAndSwap(false, true) {
		r.logger.Debug().Str("job", h.name).Msg("Skipping periodic run, previous run still in flight")

		return
	}
	defer h.running.Store(false)

	state, output := r.execute(h)

	r.mu.Lock()
	defer r.mu.Unlock()

	if h.finished() {
		return
	}

	if state == StateCancelled {
		r.publishLocked(h, func(i *Info) { i.State = StateCancelled })

		return
	}

	r.publishLocked(h, func(i *Info) {
		i.State = StateEnqueued
		i.LastResult = state
		i.Output = output
	})

	r.logger.Debug().Str("job", h.name).Str("result", string(state)).Msg("Periodic run finished")
}

// execute runs one invocation including execution-level retries and reports its terminal state.
func (r *Runner) execute(h *handle) (State, Data) {
	if err := r.awaitConstraints(h); err != nil {
		return StateCancelled, nil
	}

	policy := r.definition(h).backoff

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialDelay
	bo.MaxInterval = policy.MaxDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	attempt := 0

	operation := func() (Result, error) {
		def := r.definition(h)

		r.publish(h, func(i *Info) {
			i.State = StateRunning
			i.Attempt = attempt + 1
		})

		res := r.invoke(h, def, attempt)
		attempt++

		switch res.Kind {
		case ResultSuccess:
			return res, nil
		case ResultRetry:
			return res, errRetryRequested
		default:
			return res, backoff.Permanent(errWorkFailed)
		}
	}

	notify := func(err error, next time.Duration) {
		r.logger.Warn().
			Err(err).
			Str("job", h.name).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("Job attempt failed, retrying")

		r.publish(h, func(i *Info) { i.State = StateEnqueued })
	}

	res, err := backoff.Retry(h.ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)

	switch {
	case err == nil:
		return StateSucceeded, res.Output
	case h.ctx.Err() != nil:
		return StateCancelled, res.Output
	default:
		return StateFailed, res.Output
	}
}

// invoke calls the worker, converting a panic into a failure result.
func (r *Runner) invoke(h *handle, def definition, attempt int) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().
				Str("job", h.name).
				Str("id", h.id).
				Interface("panic", p).
				Bytes("stack", debug.Stack()).
				Msg("Worker panicked")

			res = Failure(Data{"error": fmt.Sprintf("panic: %v", p)})
		}
	}()

	return def.worker.DoWork(h.ctx, Params{
		ID:         h.id,
		Name:       h.name,
		Tags:       slices.Clone(def.tags),
		Input:      def.input.clone(),
		RunAttempt: attempt,
	})
}

// awaitConstraints holds the job in BLOCKED until its constraints are met or it is cancelled.
func (r *Runner) awaitConstraints(h *handle) error {
	if !r.definition(h).constraints.RequiresNetwork || r.network.Online(h.ctx) {
		return h.ctx.Err()
	}

	r.publish(h, func(i *Info) { i.State = StateBlocked })
	r.logger.Info().Str("job", h.name).Msg("Job blocked waiting for network")

	ticker := r.clock.Ticker(r.blockedPoll)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return h.ctx.Err()
		case <-ticker.Chan():
			if r.network.Online(h.ctx) {
				return nil
			}
		}
	}
}

func (h *handle) finished() bool {
	return h.info.State.IsFinished()
}

func (i Info) clone() Info {
	i.Tags = slices.Clone(i.Tags)
	if i.Output != nil {
		i.Output = maps.Clone(i.Output)
	}

	return i
}

func offerLatest(ch chan Info, v Info) {
	for {
		select {
		case ch <- v:
			return
		default:
		}

		select {
		case <-ch:
		default:
		}
	}
}
