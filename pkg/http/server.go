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

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/carverauto/inkmirror/pkg/clock"
	"github.com/carverauto/inkmirror/pkg/coordinator"
	"github.com/carverauto/inkmirror/pkg/jobs"
	"github.com/carverauto/inkmirror/pkg/logger"
	"github.com/carverauto/inkmirror/pkg/models"
	"github.com/carverauto/inkmirror/pkg/version"
)

//go:generate mockgen -destination=mock_http.go -package=http github.com/carverauto/inkmirror/pkg/http RefreshTrigger

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	shutdownTimeout          = 5 * time.Second
)

var errMissingDependency = errors.New("status server dependency is nil")

// ImageFeed is the in-memory image broadcast.
type ImageFeed interface {
	Current() (coordinator.ImageUpdate, bool)
	Subscribe(ctx context.Context) <-chan coordinator.ImageUpdate
}

// DeviceSource reads the stored device registration.
type DeviceSource interface {
	Get(ctx context.Context) (*models.DeviceConfig, error)
}

// ImageCache reads the persisted image metadata.
type ImageCache interface {
	Get(ctx context.Context) (*models.ImageMetadata, error)
}

// RefreshHistory reads and clears the refresh log.
type RefreshHistory interface {
	Entries(ctx context.Context) ([]models.RefreshLogEntry, error)
	Clear(ctx context.Context) error
}

// RefreshTrigger starts manual refreshes and reports job state.
type RefreshTrigger interface {
	StartOneTimeImageRefreshWork(ctx context.Context, loadNextPlaylistImage bool) error
	PeriodicWorkInfo() (jobs.Info, bool)
	OneTimeWorkInfo() (jobs.Info, bool)
}

// Dependencies are the components the server observes. Clock defaults to the real clock.
type Dependencies struct {
	Images  ImageFeed
	Devices DeviceSource
	Cache   ImageCache
	History RefreshHistory
	Refresh RefreshTrigger
	Clock   clock.Clock
	Logger  logger.Logger
}

// Server is the status API.
type Server struct {
	config  Config
	deps    Dependencies
	logger  logger.Logger
	clock   clock.Clock
	limiter *rate.Limiter
	handler http.Handler
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// DeviceStatus is the redacted device registration.
type DeviceStatus struct {
	Type            models.DeviceType `json:"device_type"`
	APIBaseURL      string            `json:"api_base_url"`
	APIAccessToken  string            `json:"api_access_token"`
	DeviceMacID     string            `json:"device_mac_id,omitempty"`
	RefreshRateSecs *int64            `json:"refresh_rate_secs,omitempty"`
	PlaylistMode    string            `json:"playlist_mode"`
}

// CacheStatus describes the persisted image.
type CacheStatus struct {
	URL                  string     `json:"url,omitempty"`
	Valid                bool       `json:"valid"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
	SecondsUntilExpiring int64      `json:"seconds_until_expiring"`
	ErrorMessage         string     `json:"error_message,omitempty"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Version     string                   `json:"version"`
	Configured  bool                     `json:"configured"`
	Device      *DeviceStatus            `json:"device,omitempty"`
	Image       *coordinator.ImageUpdate `json:"image,omitempty"`
	Cache       CacheStatus              `json:"cache"`
	PeriodicJob *jobs.Info               `json:"periodic_job,omitempty"`
	OneTimeJob  *jobs.Info               `json:"one_time_job,omitempty"`
}

// RefreshResponse is returned by POST /api/refresh.
type RefreshResponse struct {
	Accepted              bool       `json:"accepted"`
	LoadNextPlaylistImage bool       `json:"load_next_playlist_image"`
	Job                   *jobs.Info `json:"job,omitempty"`
}

// NewServer validates cfg and builds the router.
func NewServer(cfg *Config, deps Dependencies) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if deps.Images == nil || deps.Devices == nil || deps.Cache == nil || deps.History == nil || deps.Refresh == nil {
		return nil, errMissingDependency
	}

	if deps.Logger == nil {
		return nil, fmt.Errorf("%w: logger", errMissingDependency)
	}

	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}

	s := &Server{
		config:  *cfg,
		deps:    deps,
		logger:  deps.Logger,
		clock:   deps.Clock,
		limiter: rate.NewLimiter(rate.Every(cfg.RefreshEvery.Std()), cfg.RefreshBurst),
	}

	s.handler = s.routes()

	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("DELETE /api/logs", s.handleClearLogs)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/updates", s.handleUpdates)

	var h http.Handler = mux

	if s.config.APIKey != "" {
		h = APIKeyMiddlewareWithOptions(APIKeyOptions{
			APIKey:          s.config.APIKey,
			ExcludePaths:    []string{"/healthz"},
			LogUnauthorized: true,
			Logger:          s.logger,
		})(h)
	}

	h = CommonMiddleware(h, s.config.CORS, s.logger)

	return RequestLogger(h, s.logger)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Status API listening")

		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status API shutdown: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (*Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := StatusResponse{Version: version.GetVersion()}

	cfg, err := s.deps.Devices.Get(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load device config")
		writeError(w, "failed to load device config", http.StatusInternalServerError)

		return
	}

	if cfg != nil {
		resp.Configured = cfg.HasToken()
		resp.Device = &DeviceStatus{
			Type:            cfg.Type,
			APIBaseURL:      cfg.APIBaseURL,
			APIAccessToken:  cfg.MaskedToken(),
			DeviceMacID:     cfg.DeviceMacID,
			RefreshRateSecs: cfg.RefreshRateSecs,
			PlaylistMode:    cfg.PlaylistMode().String(),
		}
	}

	if update, ok := s.deps.Images.Current(); ok {
		resp.Image = &update
	}

	meta, err := s.deps.Cache.Get(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load image metadata")
		writeError(w, "failed to load image metadata", http.StatusInternalServerError)

		return
	}

	resp.Cache = cacheStatus(meta, s.clock.Now())

	if info, ok := s.deps.Refresh.PeriodicWorkInfo(); ok {
		resp.PeriodicJob = &info
	}

	if info, ok := s.deps.Refresh.OneTimeWorkInfo(); ok {
		resp.OneTimeJob = &info
	}

	writeJSON(w, http.StatusOK, resp)
}

func cacheStatus(meta *models.ImageMetadata, now time.Time) CacheStatus {
	if meta == nil {
		return CacheStatus{}
	}

	status := CacheStatus{
		URL:                  meta.URL,
		Valid:                meta.IsValid(now),
		SecondsUntilExpiring: int64(meta.TimeUntilExpiration(now) / time.Second),
		ErrorMessage:         meta.ErrorMessage,
	}

	if expiry, ok := meta.ExpiresAt(); ok {
		status.ExpiresAt = &expiry
	}

	return status
}

// handleLogs returns the refresh history oldest first. ?limit=N keeps the newest N.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.History.Entries(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load refresh log")
		writeError(w, "failed to load refresh log", http.StatusInternalServerError)

		return
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}

		if limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}

	if entries == nil {
		entries = []models.RefreshLogEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.History.Clear(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear refresh log")
		writeError(w, "failed to clear refresh log", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRefresh enqueues a one-time refresh. ?next=true advances the playlist.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	loadNext := false

	if raw := r.URL.Query().Get("next"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, "next must be a boolean", http.StatusBadRequest)
			return
		}

		loadNext = v
	}

	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", strconv.Itoa(int(s.config.RefreshEvery.Std().Seconds())))
		writeError(w, "refresh requested too often", http.StatusTooManyRequests)

		return
	}

	if err := s.deps.Refresh.StartOneTimeImageRefreshWork(r.Context(), loadNext); err != nil {
		s.logger.Error().Err(err).Msg("Failed to start one-time refresh")
		writeError(w, "failed to start refresh", http.StatusServiceUnavailable)

		return
	}

	resp := RefreshResponse{Accepted: true, LoadNextPlaylistImage: loadNext}

	if info, ok := s.deps.Refresh.OneTimeWorkInfo(); ok {
		resp.Job = &info
	}

	writeJSON(w, http.StatusAccepted, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// headers are already sent; nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, ErrorResponse{Message: message, Status: status})
}
