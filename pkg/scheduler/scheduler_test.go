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

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carverauto/inkmirror/pkg/jobs"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var noopWorker = jobs.WorkerFunc(func(context.Context, jobs.Params) jobs.Result {
	return jobs.Success(nil)
})

func deviceConfig(dt models.DeviceType, master *bool) *models.DeviceConfig {
	return &models.DeviceConfig{
		Type:           dt,
		APIBaseURL:     "https://byos.local/api",
		APIAccessToken: "token",
		IsMasterDevice: master,
	}
}

func newTestScheduler(t *testing.T) (*Scheduler, *MockJobRunner, *MockConfigStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	runner := NewMockJobRunner(ctrl)
	configs := NewMockConfigStore(ctrl)

	s, err := New(runner, configs, noopWorker, logger.NewTestLogger())
	require.NoError(t, err)

	return s, runner, configs
}

func TestEffectiveInterval(t *testing.T) {
	tests := []struct {
		secs     int64
		expected time.Duration
	}{
		{secs: 30, expected: 15 * time.Minute},
		{secs: 0, expected: 15 * time.Minute},
		{secs: -10, expected: 15 * time.Minute},
		{secs: 839, expected: 15 * time.Minute},
		{secs: 900, expected: 16 * time.Minute},
		{secs: 959, expected: 16 * time.Minute},
		{secs: 1800, expected: 31 * time.Minute},
		{secs: 3600, expected: 61 * time.Minute},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, EffectiveInterval(tt.secs), "interval %ds", tt.secs)
	}
}

func TestScheduleImageRefreshWork_NoTokenIsNoop(t *testing.T) {
	s, _, configs := newTestScheduler(t)

	configs.EXPECT().Get(gomock.Any()).Return(nil, nil)
	require.NoError(t, s.ScheduleImageRefreshWork(context.Background(), 600))

	blank := deviceConfig(models.DeviceTypeBYOS, nil)
	blank.APIAccessToken = ""

	configs.EXPECT().Get(gomock.Any()).Return(blank, nil)
	require.NoError(t, s.ScheduleImageRefreshWork(context.Background(), 600))
}

func TestScheduleImageRefreshWork_ConfigError(t *testing.T) {
	s, _, configs := newTestScheduler(t)

	configs.EXPECT().Get(gomock.Any()).Return(nil, errors.New("kv down"))

	require.Error(t, s.ScheduleImageRefreshWork(context.Background(), 600))
}

func TestScheduleImageRefreshWork_PlaylistFlagByDeviceType(t *testing.T) {
	tests := []struct {
		name    string
		config  *models.DeviceConfig
		advance string
	}{
		{name: "primary mirrors", config: deviceConfig(models.DeviceTypePrimary, nil), advance: "false"},
		{name: "byos advances", config: deviceConfig(models.DeviceTypeBYOS, models.BoolPtr(false)), advance: "true"},
		{name: "byod master advances", config: deviceConfig(models.DeviceTypeBYOD, nil), advance: "true"},
		{name: "byod slave mirrors", config: deviceConfig(models.DeviceTypeBYOD, models.BoolPtr(false)), advance: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, runner, configs := newTestScheduler(t)

			var got jobs.PeriodicRequest

			configs.EXPECT().Get(gomock.Any()).Return(tt.config, nil)
			runner.EXPECT().EnqueuePeriodic(gomock.Any()).DoAndReturn(func(req jobs.PeriodicRequest) (string, error) {
				got = req
				return "id", nil
			})

			require.NoError(t, s.ScheduleImageRefreshWork(context.Background(), 30))

			assert.Equal(t, PeriodicWorkName, got.Name)
			assert.Equal(t, 15*time.Minute, got.Interval)
			assert.Equal(t, []string{PeriodicWorkTag}, got.Tags)
			assert.Equal(t, tt.advance, got.Input[KeyLoadNextPlaylistImage])
			assert.Equal(t, string(models.WorkTypePeriodic), got.Input[KeyWorkType])
			assert.True(t, got.Constraints.RequiresNetwork)
			assert.Equal(t, jobs.PolicyUpdate, got.Policy)
			assert.Equal(t, 30*time.Second, got.Backoff.InitialDelay)
			assert.Equal(t, 3, got.Backoff.MaxAttempts)
			assert.NotNil(t, got.Worker)
		})
	}
}

func TestStartOneTimeImageRefreshWork(t *testing.T) {
	s, runner, _ := newTestScheduler(t)

	var got jobs.OneTimeRequest

	runner.EXPECT().EnqueueOneTime(gomock.Any()).DoAndReturn(func(req jobs.OneTimeRequest) (string, error) {
		got = req
		return "id", nil
	})

	require.NoError(t, s.StartOneTimeImageRefreshWork(context.Background(), true))

	assert.Equal(t, OneTimeWorkName, got.Name)
	assert.Equal(t, []string{OneTimeWorkTag}, got.Tags)
	assert.Equal(t, "true", got.Input[KeyLoadNextPlaylistImage])
	assert.Equal(t, string(models.WorkTypeOneTime), got.Input[KeyWorkType])
	assert.Equal(t, jobs.PolicyReplace, got.Policy)
	assert.True(t, got.Constraints.RequiresNetwork)

	runner.EXPECT().EnqueueOneTime(gomock.Any()).Return("", jobs.ErrStopped)
	require.ErrorIs(t, s.StartOneTimeImageRefreshWork(context.Background(), false), jobs.ErrStopped)
}

func TestUpdateRefreshInterval(t *testing.T) {
	s, runner, configs := newTestScheduler(t)

	var got jobs.PeriodicRequest

	gomock.InOrder(
		configs.EXPECT().SaveRefreshRate(gomock.Any(), int64(3600)).Return(nil),
		configs.EXPECT().Get(gomock.Any()).Return(deviceConfig(models.DeviceTypeBYOS, nil), nil),
		runner.EXPECT().EnqueuePeriodic(gomock.Any()).DoAndReturn(func(req jobs.PeriodicRequest) (string, error) {
			got = req
			return "id", nil
		}),
	)

	require.NoError(t, s.UpdateRefreshInterval(context.Background(), 3600))
	assert.Equal(t, 61*time.Minute, got.Interval)
}

func TestUpdateRefreshInterval_SaveFailureSkipsReschedule(t *testing.T) {
	s, _, configs := newTestScheduler(t)

	configs.EXPECT().SaveRefreshRate(gomock.Any(), int64(60)).Return(errors.New("no config"))

	require.Error(t, s.UpdateRefreshInterval(context.Background(), 60))
}

func TestCancelImageRefreshWork(t *testing.T) {
	s, runner, _ := newTestScheduler(t)

	runner.EXPECT().Cancel(PeriodicWorkName)
	runner.EXPECT().Cancel(OneTimeWorkName)

	s.CancelImageRefreshWork()
}

func TestNew_RequiresWorker(t *testing.T) {
	_, err := New(nil, nil, nil, logger.NewTestLogger())
	require.ErrorIs(t, err, errNilWorker)
}

type staticConfigs struct {
	cfg *models.DeviceConfig
}

func (s *staticConfigs) Get(context.Context) (*models.DeviceConfig, error) { return s.cfg, nil }

func (s *staticConfigs) SaveRefreshRate(_ context.Context, secs int64) error {
	s.cfg.RefreshRateSecs = models.Int64Ptr(secs)
	return nil
}

func TestScheduler_ResubmitKeepsSinglePeriodicJob(t *testing.T) {
	runner := jobs.NewRunner(logger.NewTestLogger())
	require.NoError(t, runner.Start(context.Background()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = runner.Stop(ctx)
	})

	s, err := New(runner, &staticConfigs{cfg: deviceConfig(models.DeviceTypeBYOS, nil)}, noopWorker, logger.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, s.ScheduleImageRefreshWork(context.Background(), 600))

	first, ok := s.PeriodicWorkInfo()
	require.True(t, ok)
	assert.Equal(t, 15*time.Minute, first.Interval)

	require.NoError(t, s.UpdateRefreshInterval(context.Background(), 1800))

	second, ok := s.PeriodicWorkInfo()
	require.True(t, ok)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 31*time.Minute, second.Interval)
	assert.Equal(t, jobs.StateEnqueued, second.State)

	s.CancelImageRefreshWork()

	cancelled, ok := s.PeriodicWorkInfo()
	require.True(t, ok)
	assert.Equal(t, jobs.StateCancelled, cancelled.State)

	_, ok = s.OneTimeWorkInfo()
	assert.False(t, ok)
}
