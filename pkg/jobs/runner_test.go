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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastBackoff = BackoffPolicy{
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	MaxAttempts:  3,
}

func newStartedRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()

	r := NewRunner(logger.NewTestLogger(), opts...)
	require.NoError(t, r.Start(context.Background()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = r.Stop(ctx)
	})

	return r
}

func waitFor(t *testing.T, ch <-chan Info, pred func(Info) bool) Info {
	t.Helper()

	timeout := time.After(5 * time.Second)

	for {
		select {
		case info, ok := <-ch:
			require.True(t, ok, "watch channel closed")

			if pred(info) {
				return info
			}
		case <-timeout:
			t.Fatal("timed out waiting for job state")

			return Info{}
		}
	}
}

func inState(s State) func(Info) bool {
	return func(i Info) bool { return i.State == s }
}

func watch(t *testing.T, r *Runner, name string) <-chan Info {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ch, err := r.Watch(ctx, name)
	require.NoError(t, err)

	return ch
}

func TestRunner_OneTimeSuccess(t *testing.T) {
	r := newStartedRunner(t)
	ch := watch(t, r, "job")

	var got Params

	id, err := r.EnqueueOneTime(OneTimeRequest{
		Name:  "job",
		Tags:  []string{"one-time"},
		Input: Data{"flag": "true"},
		Worker: WorkerFunc(func(_ context.Context, p Params) Result {
			got = p
			return Success(Data{"image_url": "https://x/img.png"})
		}),
	})
	require.NoError(t, err)

	info := waitFor(t, ch, inState(StateSucceeded))

	assert.Equal(t, id, info.ID)
	assert.Equal(t, "https://x/img.png", info.Output.String("image_url"))
	assert.False(t, info.Periodic)

	assert.Equal(t, id, got.ID)
	assert.True(t, got.HasTag("one-time"))
	assert.True(t, got.Input.Bool("flag"))
	assert.Equal(t, 0, got.RunAttempt)

	snapshot, ok := r.Info("job")
	require.True(t, ok)
	assert.Equal(t, StateSucceeded, snapshot.State)
}

func TestRunner_RetryThenSuccess(t *testing.T) {
	r := newStartedRunner(t)
	ch := watch(t, r, "job")

	var (
		mu       sync.Mutex
		attempts []int
	)

	_, err := r.EnqueueOneTime(OneTimeRequest{
		Name:    "job",
		Backoff: fastBackoff,
		Worker: WorkerFunc(func(_ context.Context, p Params) Result {
			mu.Lock()
			defer mu.Unlock()

			attempts = append(attempts, p.RunAttempt)
			if len(attempts) == 1 {
				return Retry(nil)
			}

			return Success(nil)
		}),
	})
	require.NoError(t, err)

	info := waitFor(t, ch, inState(StateSucceeded))
	assert.Equal(t, 2, info.Attempt)

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []int{0, 1}, attempts)
}

func TestRunner_RetriesExhausted(t *testing.T) {
	r := newStartedRunner(t)
	ch := watch(t, r, "job")

	var calls atomic.Int32

	_, err := r.EnqueueOneTime(OneTimeRequest{
		Name:    "job",
		Backoff: fastBackoff,
		Worker: WorkerFunc(func(context.Context, Params) Result {
			calls.Add(1)
			return Retry(Data{"error": "still broken"})
		}),
	})
	require.NoError(t, err)

	info := waitFor(t, ch, inState(StateFailed))

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "still broken", info.Output.String("error"))
}

func TestRunner_FailureIsNotRetried(t *testing.T) {
	r := newStartedRunner(t)
	ch := watch(t, r, "job")

	var calls atomic.Int32

	_, err := r.EnqueueOneTime(OneTimeRequest{
		Name:    "job",
		Backoff: fastBackoff,
		Worker: WorkerFunc(func(context.Context, Params) Result {
			calls.Add(1)
			return Failure(Data{"error": "boom"})
		}),
	})
	require.NoError(t, err)

	info := waitFor(t, ch, inState(StateFailed))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "boom", info.Output.String("error"))
}

func TestRunner_PanicBecomesFailure(t *testing.T) {
	r := newStartedRunner(t)
	ch := watch(t, r, "job")

	_, err := r.EnqueueOneTime(OneTimeRequest{
		Name: "job",
		Worker: WorkerFunc(func(context.Context, Params) Result {
			panic("worker exploded")
		}),
	})
	require.NoError(t, err)

	info := waitFor(t, ch, inState(StateFailed))
	assert.Contains(t, info.Output.String("error"), "worker exploded")
}

func TestRunner_ReplaceCancelsPrevious(t *testing.T) {
	r := newStartedRunner(t)
	ch := watch(t, r, "job")

	started := make(chan struct{})
	firstCancelled := make(chan struct{})

	firstID, err := r.EnqueueOneTime(OneTimeRequest{
		Name: "job",
		Worker: WorkerFunc(func(ctx context.Context, _ Params) Result {
			close(started)
			<-ctx.Done()
			close(firstCancelled)

			return Failure(nil)
		}),
	})
	require.NoError(t, err)

	<-started

	secondID, err := r.EnqueueOneTime(OneTimeRequest{
		Name:   "job",
		Policy: PolicyReplace,
		Worker: WorkerFunc(func(context.Context, Params) Result {
			return Success(Data{"which": "second"})
		}),
	})
	require.NoError(t, err)
	require.NotEqual(t, firstID, secondID)

	select {
	case <-firstCancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("replaced job was not cancelled")
	}

	info := waitFor(t, ch, inState(StateSucceeded))
	assert.Equal(t, secondID, info.ID)
	assert.Equal(t, "second", info.Output.String("which"))
}

func TestRunner_KeepIgnoresNewRequest(t *testing.T) {
	r := newStartedRunner(t)

	release := make(chan struct{})

	firstID, err := r.EnqueueOneTime(OneTimeRequest{
		Name: "job",
		Worker: WorkerFunc(func(context.Context, Params) Result {
			<-release
			return Success(nil)
		}),
	})
	require.NoError(t, err)

	keptID, err := r.EnqueueOneTime(OneTimeRequest{
		Name:   "job",
		Policy: PolicyKeep,
		Worker: WorkerFunc(func(context.Context, Params) Result {
			t.Error("kept request must not run")
			return Failure(nil)
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, firstID, keptID)

	close(release)
}

func TestRunner_BlockedUntilOnline(t *testing.T) {
	var online atomic.Bool

	r := newStartedRunner(t,
		WithNetworkMonitor(NetworkMonitorFunc(func(context.Context) bool { return online.Load() })),
		WithBlockedPollInterval(5*time.Millisecond),
	)
	ch := watch(t, r, "job")

	var calls atomic.Int32

	_, err := r.EnqueueOneTime(OneTimeRequest{
		Name:        "job",
		Constraints: Constraints{RequiresNetwork: true},
		Worker: WorkerFunc(func(context.Context, Params) Result {
			calls.Add(1)
			return Success(nil)
		}),
	})
	require.NoError(t, err)

	waitFor(t, ch, inState(StateBlocked))
	assert.Equal(t, int32(0), calls.Load())

	online.Store(true)

	waitFor(t, ch, inState(StateSucceeded))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunner_CancelBlockedJob(t *testing.T) {
	r := newStartedRunner(t,
		WithNetworkMonitor(NetworkMonitorFunc(func(context.Context) bool { return false })),
		WithBlockedPollInterval(5*time.Millisecond),
	)
	ch := watch(t, r, "job")

	_, err := r.EnqueueOneTime(OneTimeRequest{
		Name:        "job",
		Constraints: Constraints{RequiresNetwork: true},
		Worker: WorkerFunc(func(context.Context, Params) Result {
			t.Error("blocked job must not run")
			return Failure(nil)
		}),
	})
	require.NoError(t, err)

	waitFor(t, ch, inState(StateBlocked))

	r.Cancel("job")

	waitFor(t, ch, inState(StateCancelled))

	// cancelling again is a no-op
	r.Cancel("job")
	r.Cancel("missing")
}

func TestRunner_PeriodicRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a real cron tick")
	}

	r := newStartedRunner(t)
	ch := watch(t, r, "periodic")

	var calls atomic.Int32

	id, err := r.EnqueuePeriodic(PeriodicRequest{
		Name:     "periodic",
		Interval: time.Second,
		Tags:     []string{"periodic"},
		Worker: WorkerFunc(func(context.Context, Params) Result {
			calls.Add(1)
			return Success(Data{"tagged": "yes"})
		}),
	})
	require.NoError(t, err)

	enqueued := waitFor(t, ch, inState(StateEnqueued))
	assert.Equal(t, id, enqueued.ID)
	assert.True(t, enqueued.Periodic)
	assert.Equal(t, time.Second, enqueued.Interval)
	assert.False(t, enqueued.NextRun.IsZero())

	info := waitFor(t, ch, func(i Info) bool { return i.LastResult == StateSucceeded })

	assert.Equal(t, StateEnqueued, info.State)
	assert.Equal(t, "yes", info.Output.String("tagged"))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestRunner_PeriodicUpdateKeepsIdentity(t *testing.T) {
	r := newStartedRunner(t)

	noop := WorkerFunc(func(context.Context, Params) Result { return Success(nil) })

	firstID, err := r.EnqueuePeriodic(PeriodicRequest{Name: "periodic", Interval: time.Hour, Worker: noop})
	require.NoError(t, err)

	updatedID, err := r.EnqueuePeriodic(PeriodicRequest{
		Name:     "periodic",
		Interval: 2 * time.Hour,
		Worker:   noop,
		Policy:   PolicyUpdate,
	})
	require.NoError(t, err)
	assert.Equal(t, firstID, updatedID)

	info, ok := r.Info("periodic")
	require.True(t, ok)
	assert.Equal(t, 2*time.Hour, info.Interval)
	assert.Equal(t, StateEnqueued, info.State)

	replacedID, err := r.EnqueuePeriodic(PeriodicRequest{Name: "periodic", Interval: time.Hour, Worker: noop})
	require.NoError(t, err)
	assert.NotEqual(t, firstID, replacedID)

	r.Cancel("periodic")

	info, ok = r.Info("periodic")
	require.True(t, ok)
	assert.Equal(t, StateCancelled, info.State)
	assert.True(t, info.NextRun.IsZero())
}

func TestRunner_RejectsInvalidRequests(t *testing.T) {
	idle := NewRunner(logger.NewTestLogger())

	noop := WorkerFunc(func(context.Context, Params) Result { return Success(nil) })

	_, err := idle.EnqueueOneTime(OneTimeRequest{Name: "job", Worker: noop})
	require.ErrorIs(t, err, ErrNotStarted)

	r := newStartedRunner(t)

	_, err = r.EnqueueOneTime(OneTimeRequest{Worker: noop})
	require.ErrorIs(t, err, errMissingName)

	_, err = r.EnqueueOneTime(OneTimeRequest{Name: "job"})
	require.ErrorIs(t, err, errMissingWorker)

	_, err = r.EnqueuePeriodic(PeriodicRequest{Name: "p", Interval: time.Millisecond, Worker: noop})
	require.ErrorIs(t, err, errInvalidInterval)
}

func TestRunner_StopClosesWatchers(t *testing.T) {
	r := NewRunner(logger.NewTestLogger())
	require.NoError(t, r.Start(context.Background()))

	ch, err := r.Watch(context.Background(), "job")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, r.Stop(ctx))

	_, ok := <-ch
	assert.False(t, ok)

	_, err = r.EnqueueOneTime(OneTimeRequest{
		Name:   "job",
		Worker: WorkerFunc(func(context.Context, Params) Result { return Success(nil) }),
	})
	require.ErrorIs(t, err, ErrStopped)

	_, err = r.Watch(context.Background(), "job")
	require.ErrorIs(t, err, ErrStopped)
}

func TestBackoffPolicyDefaults(t *testing.T) {
	p := BackoffPolicy{}.withDefaults()

	assert.Equal(t, 30*time.Second, p.InitialDelay)
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 5*time.Minute, p.MaxDelay)

	assert.True(t, StateCancelled.IsFinished())
	assert.False(t, StateBlocked.IsFinished())
}
