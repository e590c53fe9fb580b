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

// Package cli implements the inkmirror command line.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/carverauto/inkmirror/pkg/config"
	"github.com/carverauto/inkmirror/pkg/jobs"
	"github.com/carverauto/inkmirror/pkg/lifecycle"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/mirror"
	"github.com/carverauto/inkmirror/pkg/models"
	"github.com/carverauto/inkmirror/pkg/version"
)

const (
	cmdRun     = "run"
	cmdDevice  = "device"
	cmdRefresh = "refresh"
	cmdLogs    = "logs"
	cmdVersion = "version"

	actionSet   = "set"
	actionShow  = "show"
	actionClear = "clear"
)

// SubcommandHandler defines the interface for parsing subcommand flags.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

func newFlagSet(name string, cfg *CmdConfig) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.ConfigFile, "config", mirror.DefaultConfigPath, "path to inkmirror.json")

	return fs
}

// RunHandler handles flags for the run subcommand.
type RunHandler struct{}

// Parse processes the command-line arguments for the run subcommand.
func (RunHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(cmdRun, cfg)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing run flags: %w", err)
	}

	return noExtraArgs(fs)
}

// DeviceHandler handles the device subcommand and its actions.
type DeviceHandler struct{}

// Parse processes "device <action> [flags]".
func (DeviceHandler) Parse(args []string, cfg *CmdConfig) error {
	if len(args) == 0 {
		return errMissingAction
	}

	cfg.Action = args[0]

	fs := newFlagSet("device "+cfg.Action, cfg)

	switch cfg.Action {
	case actionSet:
		fs.StringVar(&cfg.Device.Type, "type", "", "device type: trmnl, byod or byos")
		fs.StringVar(&cfg.Device.BaseURL, "url", "", "API base URL")
		fs.StringVar(&cfg.Device.Token, "token", "", "device access token")
		fs.StringVar(&cfg.Device.MacID, "mac", "", "device MAC address")
		fs.Int64Var(&cfg.Device.RefreshRate, "rate", 0, "refresh rate in seconds")
		fs.StringVar(&cfg.Device.Master, "master", "", "whether a byod device drives the playlist")
	case actionShow, actionClear:
	default:
		return fmt.Errorf("%w: %q", errUnknownAction, cfg.Action)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("parsing device %s flags: %w", cfg.Action, err)
	}

	return noExtraArgs(fs)
}

// RefreshHandler handles flags for the refresh subcommand.
type RefreshHandler struct{}

// Parse processes the command-line arguments for the refresh subcommand.
func (RefreshHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(cmdRefresh, cfg)
	fs.BoolVar(&cfg.LoadNext, "next", false, "advance the playlist")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing refresh flags: %w", err)
	}

	return noExtraArgs(fs)
}

// LogsHandler handles flags for the logs subcommand.
type LogsHandler struct{}

// Parse processes the command-line arguments for the logs subcommand.
func (LogsHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(cmdLogs, cfg)
	fs.IntVar(&cfg.Limit, "n", 0, "only show the newest n entries")
	fs.BoolVar(&cfg.ClearLogs, "clear", false, "delete the refresh history")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing logs flags: %w", err)
	}

	if cfg.Limit < 0 {
		return errInvalidLimit
	}

	return noExtraArgs(fs)
}

type versionHandler struct{}

func (versionHandler) Parse([]string, *CmdConfig) error { return nil }

func noExtraArgs(fs *flag.FlagSet) error {
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s", errUnexpectedArgument, fs.Arg(0))
	}

	return nil
}

// ParseFlags parses os.Args.
func ParseFlags() (*CmdConfig, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses a command line without the program name.
func ParseArgs(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{ConfigFile: mirror.DefaultConfigPath, Args: args}

	if len(args) == 0 || args[0] == "-help" || args[0] == "--help" || args[0] == "-h" || args[0] == "help" {
		cfg.Help = true

		return cfg, nil
	}

	cfg.SubCmd = args[0]

	subcommands := map[string]SubcommandHandler{
		cmdRun:     RunHandler{},
		cmdDevice:  DeviceHandler{},
		cmdRefresh: RefreshHandler{},
		cmdLogs:    LogsHandler{},
		cmdVersion: versionHandler{},
	}

	handler, exists := subcommands[cfg.SubCmd]
	if !exists {
		return cfg, fmt.Errorf("%w: %q", errUnknownCommand, cfg.SubCmd)
	}

	if err := handler.Parse(args[1:], cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ServiceFactory builds the mirror service for a command.
type ServiceFactory func(ctx context.Context, cfg *mirror.Config, log logger.Logger) (*mirror.Service, error)

// App executes parsed commands.
type App struct {
	out        io.Writer
	logger     logger.Logger
	newService ServiceFactory
	styles     logStyles
}

// AppOption customises an App.
type AppOption func(*App)

// WithServiceFactory replaces mirror.New, mainly for tests.
func WithServiceFactory(f ServiceFactory) AppOption {
	return func(a *App) { a.newService = f }
}

// WithLogger sets the logger used by the one-shot commands.
func WithLogger(log logger.Logger) AppOption {
	return func(a *App) { a.logger = log }
}

// NewApp returns an App writing command output to out.
func NewApp(out io.Writer, opts ...AppOption) *App {
	a := &App{
		out:    out,
		logger: logger.NewWriterLogger(os.Stderr, zerolog.WarnLevel),
		newService: func(ctx context.Context, cfg *mirror.Config, log logger.Logger) (*mirror.Service, error) {
			return mirror.New(ctx, cfg, log)
		},
		styles: newStyles(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Run executes cfg's subcommand.
func (a *App) Run(ctx context.Context, cfg *CmdConfig) error {
	if cfg.Help {
		ShowHelp(a.out)

		return nil
	}

	switch cfg.SubCmd {
	case cmdVersion:
		fmt.Fprintln(a.out, "inkmirror "+version.GetFullVersion())

		return nil
	case cmdRun:
		return a.runDaemon(ctx, cfg)
	case cmdDevice, cmdRefresh, cmdLogs:
		return a.withService(ctx, cfg, func(svc *mirror.Service) error {
			switch cfg.SubCmd {
			case cmdDevice:
				return a.runDevice(ctx, svc, cfg)
			case cmdRefresh:
				return a.runRefresh(ctx, svc, cfg)
			default:
				return a.runLogs(ctx, svc, cfg)
			}
		})
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, cfg.SubCmd)
	}
}

func (a *App) loadConfig(ctx context.Context, path string) (*mirror.Config, error) {
	cfg := mirror.DefaultConfig()

	if err := config.NewConfig(a.logger).LoadOrDefault(ctx, path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// withService opens the stores for a one-shot command. The status API is never started.
func (a *App) withService(ctx context.Context, cmd *CmdConfig, fn func(*mirror.Service) error) error {
	cfg, err := a.loadConfig(ctx, cmd.ConfigFile)
	if err != nil {
		return err
	}

	cfg.HTTP.Enabled = false

	svc, err := a.newService(ctx, cfg, a.logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := svc.Stop(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn().Err(err).Msg("Error closing stores")
		}
	}()

	return fn(svc)
}

func (a *App) runDaemon(ctx context.Context, cmd *CmdConfig) error {
	cfg, err := a.loadConfig(ctx, cmd.ConfigFile)
	if err != nil {
		return err
	}

	log, err := lifecycle.CreateComponentLogger(ctx, "inkmirror", cfg.Logging)
	if err != nil {
		return err
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown logger: %v\n", err)
		}
	}()

	lifecycle.InitTelemetry(ctx, "inkmirror", cfg.Logging, log)

	svc, err := a.newService(ctx, cfg, log)
	if err != nil {
		return err
	}

	log.Info().Str("version", version.GetVersion()).Str("config", cmd.ConfigFile).Msg("Starting inkmirror")

	return svc.Run(ctx)
}

func (a *App) runDevice(ctx context.Context, svc *mirror.Service, cmd *CmdConfig) error {
	switch cmd.Action {
	case actionSet:
		device, err := deviceFromFlags(&cmd.Device)
		if err != nil {
			return err
		}

		if err := svc.Devices().Save(ctx, device); err != nil {
			return err
		}

		fmt.Fprintln(a.out, a.styles.success.Render("Device settings saved"))
		fmt.Fprintln(a.out, a.renderDevice(device))

		return nil
	case actionShow:
		device, err := svc.Devices().Get(ctx)
		if err != nil {
			return err
		}

		if device == nil {
			fmt.Fprintln(a.out, a.styles.warning.Render("No device configured"))

			return nil
		}

		fmt.Fprintln(a.out, a.renderDevice(device))

		return nil
	case actionClear:
		if err := svc.Devices().Clear(ctx); err != nil {
			return err
		}

		if err := svc.ImageCache().Clear(ctx); err != nil {
			return err
		}

		fmt.Fprintln(a.out, a.styles.success.Render("Device settings and cached image cleared"))

		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownAction, cmd.Action)
	}
}

func deviceFromFlags(f *DeviceFlags) (*models.DeviceConfig, error) {
	deviceType, err := models.ParseDeviceType(f.Type)
	if err != nil {
		return nil, err
	}

	device := &models.DeviceConfig{
		Type:           deviceType,
		APIBaseURL:     f.BaseURL,
		APIAccessToken: f.Token,
		DeviceMacID:    f.MacID,
	}

	if f.RefreshRate > 0 {
		device.RefreshRateSecs = models.Int64Ptr(f.RefreshRate)
	}

	if f.Master != "" {
		master, err := strconv.ParseBool(f.Master)
		if err != nil {
			return nil, errInvalidMasterFlag
		}

		device.IsMasterDevice = models.BoolPtr(master)
	}

	if err := device.Validate(); err != nil {
		return nil, err
	}

	return device, nil
}

func (a *App) runRefresh(ctx context.Context, svc *mirror.Service, cmd *CmdConfig) error {
	result := svc.RefreshOnce(ctx, cmd.LoadNext)

	fmt.Fprintln(a.out, a.renderResult(result))

	if result.Kind != jobs.ResultSuccess {
		return errRefreshFailed
	}

	return nil
}

func (a *App) runLogs(ctx context.Context, svc *mirror.Service, cmd *CmdConfig) error {
	if cmd.ClearLogs {
		if err := svc.RefreshLog().Clear(ctx); err != nil {
			return err
		}

		fmt.Fprintln(a.out, a.styles.success.Render("Refresh log cleared"))

		return nil
	}

	entries, err := svc.RefreshLog().Entries(ctx)
	if err != nil {
		return err
	}

	if cmd.Limit > 0 && cmd.Limit < len(entries) {
		entries = entries[len(entries)-cmd.Limit:]
	}

	fmt.Fprintln(a.out, a.renderLogs(entries))

	return nil
}
