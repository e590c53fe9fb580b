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
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/inkmirror/pkg/coordinator"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsBufferSize   = 1024
)

// StreamMessage is one websocket frame on /api/updates.
type StreamMessage struct {
	Type      string                   `json:"type"`
	Image     *coordinator.ImageUpdate `json:"image,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
}

const messageTypeImage = "image"

func (s *Server) upgrader() *websocket.Upgrader {
	u := &websocket.Upgrader{
		ReadBufferSize:  wsBufferSize,
		WriteBufferSize: wsBufferSize,
	}

	// without an allow list gorilla only accepts same-origin requests
	if len(s.config.CORS.AllowedOrigins) > 0 {
		u.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			return origin == "" || originAllowed(origin, s.config.CORS.AllowedOrigins)
		}
	}

	return u
}

// handleUpdates streams every coordinator update, starting with the current image.
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Str("origin", r.Header.Get("Origin")).
			Msg("Failed to upgrade to WebSocket")

		return
	}

	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("WebSocket client connected")

	go s.readClient(conn, cancel)

	if err := s.streamUpdates(ctx, conn); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("WebSocket stream ended")
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteTimeout))
}

func (s *Server) streamUpdates(ctx context.Context, conn *websocket.Conn) error {
	updates := s.deps.Images.Subscribe(ctx)

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return ctx.Err()
			}

			msg := StreamMessage{Type: messageTypeImage, Image: &update, Timestamp: s.clock.Now()}

			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return err
			}

			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return err
			}
		}
	}
}

// readClient drains client frames so control messages are processed, and
// cancels the stream when the client goes away.
func (s *Server) readClient(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("WebSocket client closed unexpectedly")
			}

			return
		}
	}
}
