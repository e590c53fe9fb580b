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

package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/inkmirror/pkg/display"
	"github.com/carverauto/inkmirror/pkg/kv"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/mirror"
	"github.com/carverauto/inkmirror/pkg/models"
	"github.com/carverauto/inkmirror/pkg/worker"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		check   func(t *testing.T, cfg *CmdConfig)
	}{
		{
			name: "no arguments shows help",
			args: nil,
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.True(t, cfg.Help)
			},
		},
		{
			name: "run with config",
			args: []string{"run", "-config", "/tmp/ink.json"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, cmdRun, cfg.SubCmd)
				assert.Equal(t, "/tmp/ink.json", cfg.ConfigFile)
			},
		},
		{
			name: "device set",
			args: []string{
				"device", "set", "-type", "byod", "-url", "https://trmnl.app/api",
				"-token", "abc", "-mac", "AA:BB", "-rate", "900", "-master", "false",
			},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, actionSet, cfg.Action)
				assert.Equal(t, DeviceFlags{
					Type: "byod", BaseURL: "https://trmnl.app/api", Token: "abc",
					MacID: "AA:BB", RefreshRate: 900, Master: "false",
				}, cfg.Device)
				assert.Equal(t, mirror.DefaultConfigPath, cfg.ConfigFile)
			},
		},
		{
			name: "refresh next",
			args: []string{"refresh", "-next"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.True(t, cfg.LoadNext)
			},
		},
		{
			name: "logs limit and clear",
			args: []string{"logs", "-n", "5", "-clear"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, 5, cfg.Limit)
				assert.True(t, cfg.ClearLogs)
			},
		},
		{name: "unknown command", args: []string{"sync"}, wantErr: errUnknownCommand},
		{name: "device without action", args: []string{"device"}, wantErr: errMissingAction},
		{name: "device unknown action", args: []string{"device", "reset"}, wantErr: errUnknownAction},
		{name: "negative limit", args: []string{"logs", "-n", "-1"}, wantErr: errInvalidLimit},
		{name: "stray argument", args: []string{"refresh", "now"}, wantErr: errUnexpectedArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseArgs(tt.args)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestParseArgs_UnknownFlag(t *testing.T) {
	_, err := ParseArgs([]string{"device", "show", "-verbose"})
	require.Error(t, err)
}

func TestDeviceFromFlags(t *testing.T) {
	device, err := deviceFromFlags(&DeviceFlags{Type: "BYOS", BaseURL: "https://byos.local/api", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, models.DeviceTypeBYOS, device.Type)
	assert.Nil(t, device.RefreshRateSecs)
	assert.Nil(t, device.IsMasterDevice)

	device, err = deviceFromFlags(&DeviceFlags{
		Type: "byod", BaseURL: "https://trmnl.app/api", Token: "tok", RefreshRate: 300, Master: "true",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Int64Ptr(300), device.RefreshRateSecs)
	assert.Equal(t, models.BoolPtr(true), device.IsMasterDevice)

	_, err = deviceFromFlags(&DeviceFlags{Type: "byod", Token: "tok", Master: "sometimes"})
	require.ErrorIs(t, err, errInvalidMasterFlag)

	_, err = deviceFromFlags(&DeviceFlags{Type: "kobo", Token: "tok"})
	require.Error(t, err)

	_, err = deviceFromFlags(&DeviceFlags{Type: "byos", BaseURL: "https://byos.local/api"})
	require.Error(t, err)
}

// sharedStore keeps one memory store alive across the services built by each command.
type sharedStore struct {
	kv.KVStore
}

func (sharedStore) Close() error { return nil }

type cliFixture struct {
	app *App
	out *bytes.Buffer
	cfg string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	store := kv.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	out := &bytes.Buffer{}
	factory := func(ctx context.Context, cfg *mirror.Config, log logger.Logger) (*mirror.Service, error) {
		assert.False(t, cfg.HTTP.Enabled, "one-shot commands must not serve the status API")

		cfg.FakeAPI = true

		return mirror.New(ctx, cfg, log, mirror.WithKVStore(sharedStore{store}))
	}

	return &cliFixture{
		app: NewApp(out, WithLogger(logger.NewTestLogger()), WithServiceFactory(factory)),
		out: out,
		cfg: filepath.Join(t.TempDir(), "missing.json"),
	}
}

func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd, err := ParseArgs(append(args, "-config", f.cfg))
	require.NoError(t, err)

	f.out.Reset()
	err = f.app.Run(context.Background(), cmd)

	return f.out.String(), err
}

func TestApp_DeviceLifecycle(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "device", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No device configured")

	out, err = f.run(t, "device", "set", "-type", "byos", "-url", "https://byos.local/api", "-token", "abcdefgh")
	require.NoError(t, err)
	assert.Contains(t, out, "Device settings saved")
	assert.Contains(t, out, "****efgh")
	assert.NotContains(t, out, "abcdefgh")

	out, err = f.run(t, "device", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "byos")
	assert.Contains(t, out, "https://byos.local/api")

	out, err = f.run(t, "device", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared")

	out, err = f.run(t, "device", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No device configured")
}

func TestApp_DeviceSetRejectsInvalid(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "device", "set", "-type", "byos", "-url", "https://byos.local/api")
	require.Error(t, err)

	out, err := f.run(t, "device", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No device configured")
}

func TestApp_RefreshAndLogs(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "logs")
	require.NoError(t, err)
	assert.Contains(t, out, "No refresh attempts recorded")

	out, err = f.run(t, "refresh")
	require.ErrorIs(t, err, errRefreshFailed)
	assert.Contains(t, out, worker.NoDeviceConfigMessage)

	_, err = f.run(t, "device", "set", "-type", "trmnl", "-url", "https://trmnl.app/api", "-token", "abcdefgh")
	require.NoError(t, err)

	out, err = f.run(t, "refresh", "-next")
	require.NoError(t, err)
	assert.Contains(t, out, display.FakeImageURL)

	out, err = f.run(t, "logs")
	require.NoError(t, err)
	assert.Contains(t, out, "Refresh log (2)")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "FAIL")

	out, err = f.run(t, "logs", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Refresh log (1)")
	assert.NotContains(t, out, "FAIL")

	out, err = f.run(t, "logs", "-clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Refresh log cleared")

	out, err = f.run(t, "logs")
	require.NoError(t, err)
	assert.Contains(t, out, "No refresh attempts recorded")
}

func TestApp_VersionAndHelp(t *testing.T) {
	out := &bytes.Buffer{}
	app := NewApp(out, WithLogger(logger.NewTestLogger()))

	require.NoError(t, app.Run(context.Background(), &CmdConfig{SubCmd: cmdVersion}))
	assert.Contains(t, out.String(), "inkmirror ")

	out.Reset()
	require.NoError(t, app.Run(context.Background(), &CmdConfig{Help: true}))
	assert.Contains(t, out.String(), "device set")

	require.ErrorIs(t, app.Run(context.Background(), &CmdConfig{SubCmd: "bogus"}), errUnknownCommand)
}
