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

package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
)

func receive(t *testing.T, ch <-chan ImageUpdate) ImageUpdate {
	t.Helper()

	select {
	case u, ok := <-ch:
		require.True(t, ok, "subscription closed unexpectedly")
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for image update")
		return ImageUpdate{}
	}
}

func TestCoordinator_LatestValueWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := New(NewMockMetadataSource(ctrl), clock.Real(), logger.NewTestLogger())

	_, ok := c.Current()
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := c.Subscribe(ctx)
	second := c.Subscribe(ctx)

	c.UpdateImage("https://x/1.png", models.Int64Ptr(600), "")

	assert.Equal(t, "https://x/1.png", receive(t, first).URL)
	assert.Equal(t, "https://x/1.png", receive(t, second).URL)

	c.UpdateImage("https://x/1.png", models.Int64Ptr(600), "")
	assert.Equal(t, "https://x/1.png", receive(t, first).URL, "identical values are not deduplicated")

	c.UpdateImage("https://x/2.png", nil, "render failed")

	current, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "https://x/2.png", current.URL)
	assert.Equal(t, "render failed", current.ErrorMessage)
}

func TestCoordinator_LateSubscriberSeesCurrent(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := New(NewMockMetadataSource(ctrl), clock.Real(), logger.NewTestLogger())

	c.UpdateImage("https://x/a.png", nil, "")
	c.UpdateImage("https://x/b.png", nil, "")

	ctx, cancel := context.WithCancel(context.Background())
	late := c.Subscribe(ctx)

	assert.Equal(t, "https://x/b.png", receive(t, late).URL)

	cancel()

	select {
	case _, ok := <-late:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

func TestCoordinator_InitializeFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockMetadataSource(ctrl)

	source.EXPECT().Get(gomock.Any()).Return(&models.ImageMetadata{
		URL:                 "https://x/cached.png",
		RefreshIntervalSecs: models.Int64Ptr(900),
		Timestamp:           1_700_000_000_000,
	}, nil).Times(1)

	c := New(source, clock.Real(), logger.NewTestLogger())

	require.NoError(t, c.Initialize(context.Background()))
	require.NoError(t, c.Initialize(context.Background()))

	current, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "https://x/cached.png", current.URL)
	assert.True(t, current.FromCache)
	assert.Equal(t, time.UnixMilli(1_700_000_000_000), current.StartedAt)
}

func TestCoordinator_InitializeKeepsExistingValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockMetadataSource(ctrl)
	source.EXPECT().Get(gomock.Any()).Times(0)

	c := New(source, clock.Real(), logger.NewTestLogger())
	c.UpdateImage("https://x/fresh.png", nil, "")

	require.NoError(t, c.Initialize(context.Background()))

	current, _ := c.Current()
	assert.Equal(t, "https://x/fresh.png", current.URL)
}

func TestCoordinator_InitializeEmptyCacheAndErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockMetadataSource(ctrl)

	gomock.InOrder(
		source.EXPECT().Get(gomock.Any()).Return(nil, nil),
		source.EXPECT().Get(gomock.Any()).Return(nil, errors.New("kv unavailable")),
	)

	c := New(source, clock.Real(), logger.NewTestLogger())

	require.NoError(t, c.Initialize(context.Background()))

	_, ok := c.Current()
	assert.False(t, ok)

	require.Error(t, c.Initialize(context.Background()))
}

func TestCoordinator_StaleUpdateRejection(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := clock.NewFixed(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))

	latestWins := New(NewMockMetadataSource(ctrl), clk, logger.NewTestLogger())
	strict := New(NewMockMetadataSource(ctrl), clk, logger.NewTestLogger(), WithStaleUpdateRejection())

	periodicStart := clk.Now()
	oneTimeStart := periodicStart.Add(10 * time.Second)

	for _, c := range []*Coordinator{latestWins, strict} {
		assert.True(t, c.UpdateImageFrom(oneTimeStart, "https://x/one-time.png", nil, ""))
	}

	assert.True(t, latestWins.UpdateImageFrom(periodicStart, "https://x/periodic.png", nil, ""))
	assert.False(t, strict.UpdateImageFrom(periodicStart, "https://x/periodic.png", nil, ""))

	current, _ := latestWins.Current()
	assert.Equal(t, "https://x/periodic.png", current.URL)

	current, _ = strict.Current()
	assert.Equal(t, "https://x/one-time.png", current.URL)
}
