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

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/kv"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
)

func TestDeviceConfigStore(t *testing.T) {
	ctx := context.Background()
	s := NewDeviceConfigStore(kv.NewMemoryStore(), logger.NewTestLogger())

	cfg, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	hasToken, err := s.HasToken(ctx)
	require.NoError(t, err)
	assert.False(t, hasToken)

	require.ErrorIs(t, s.SaveRefreshRate(ctx, 600), ErrNoDeviceConfig)

	require.NoError(t, s.Save(ctx, &models.DeviceConfig{
		Type:           models.DeviceTypeBYOD,
		APIBaseURL:     "https://usetrmnl.com/api",
		APIAccessToken: "secret-token",
		IsMasterDevice: models.BoolPtr(false),
	}))

	hasToken, err = s.HasToken(ctx)
	require.NoError(t, err)
	assert.True(t, hasToken)

	require.NoError(t, s.SaveRefreshRate(ctx, 900))
	require.Error(t, s.SaveRefreshRate(ctx, -1))

	cfg, err = s.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, int64(900), cfg.RefreshRate(0))
	assert.Equal(t, models.PlaylistModeMirror, cfg.PlaylistMode())

	require.NoError(t, s.Clear(ctx))

	cfg, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestDeviceConfigStore_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewDeviceConfigStore(kv.NewMemoryStore(), logger.NewTestLogger())

	ch, err := s.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, &models.DeviceConfig{Type: models.DeviceTypeBYOS, APIAccessToken: "t"}))

	select {
	case cfg := <-ch:
		require.NotNil(t, cfg)
		assert.Equal(t, models.DeviceTypeBYOS, cfg.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("no config update")
	}

	require.NoError(t, s.Clear(ctx))

	select {
	case cfg := <-ch:
		assert.Nil(t, cfg)
	case <-time.After(5 * time.Second):
		t.Fatal("no clear update")
	}
}

func TestImageMetadataStore_Validity(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewImageMetadataStore(kv.NewMemoryStore(), clk, logger.NewTestLogger())

	valid, err := s.HasValidImageURL(ctx)
	require.NoError(t, err)
	assert.False(t, valid)

	status := models.HTTPStatusOK
	require.NoError(t, s.Save(ctx, "https://x/img.png", models.Int64Ptr(3600), &status))

	valid, err = s.HasValidImageURL(ctx)
	require.NoError(t, err)
	assert.True(t, valid)

	remaining, err := s.TimeUntilExpiration(ctx)
	require.NoError(t, err)
	assert.InDelta(t, float64(3600*time.Second), float64(remaining), float64(3*time.Second))

	clk.Advance(time.Hour)

	valid, err = s.HasValidImageURL(ctx)
	require.NoError(t, err)
	assert.False(t, valid)

	remaining, err = s.TimeUntilExpiration(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	meta, err := s.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "https://x/img.png", meta.URL)
	require.NotNil(t, meta.HTTPStatusCode)
	assert.Equal(t, 200, *meta.HTTPStatusCode)

	require.NoError(t, s.Clear(ctx))

	meta, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestImageMetadataStore_MissingRateIsInvalid(t *testing.T) {
	ctx := context.Background()
	s := NewImageMetadataStore(kv.NewMemoryStore(), clock.NewFixed(time.Now()), logger.NewTestLogger())

	require.NoError(t, s.Save(ctx, "https://x/img.png", nil, nil))

	valid, err := s.HasValidImageURL(ctx)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestImageMetadataStore_WatchValidity(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.NewFixed(time.Now())
	s := NewImageMetadataStore(kv.NewMemoryStore(), clk, logger.NewTestLogger())

	validity, err := s.WatchValidity(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "https://x/img.png", models.Int64Ptr(60), nil))

	select {
	case v := <-validity:
		assert.True(t, v)
	case <-time.After(5 * time.Second):
		t.Fatal("no validity update")
	}

	require.NoError(t, s.Clear(ctx))

	select {
	case v := <-validity:
		assert.False(t, v)
	case <-time.After(5 * time.Second):
		t.Fatal("no validity update after clear")
	}
}

func TestRefreshLogStore_Bounded(t *testing.T) {
	ctx := context.Background()
	s := NewRefreshLogStore(kv.NewMemoryStore(), logger.NewTestLogger())
	start := time.UnixMilli(1_700_000_000_000)

	total := models.MaxLogEntries + 25
	for i := 0; i < total; i++ {
		entry := models.NewFailureLogEntry(
			start.Add(time.Duration(i)*time.Second), models.DeviceTypeBYOS, fmt.Sprintf("error %d", i),
			models.WorkTypePeriodic, nil,
		)
		require.NoError(t, s.Append(ctx, &entry))
	}

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, models.MaxLogEntries)

	assert.Equal(t, "error 25", entries[0].Error, "oldest entries are evicted first")
	assert.Equal(t, fmt.Sprintf("error %d", total-1), entries[len(entries)-1].Error)

	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Timestamp, entries[i].Timestamp)
	}

	require.NoError(t, s.Clear(ctx))

	entries, err = s.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRefreshLogStore_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewRefreshLogStore(kv.NewMemoryStore(), logger.NewTestLogger())

	ch, err := s.Watch(ctx)
	require.NoError(t, err)

	info := &models.DisplayInfo{
		HTTPStatus: models.HTTPStatusOK,
		DeviceType: models.DeviceTypePrimary,
		ImageURL:   "https://x/img.png",
	}
	entry := models.NewSuccessLogEntry(time.Now(), info, models.WorkTypeOneTime)
	require.NoError(t, s.Append(ctx, &entry))

	select {
	case entries := <-ch:
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Success)
		assert.Equal(t, "https://x/img.png", entries[0].ImageURL)
	case <-time.After(5 * time.Second):
		t.Fatal("no log update")
	}
}
