package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/response"
	"github.com/nooreldin2735/exams-console/internal/service"
	ws "github.com/nooreldin2735/exams-console/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams composition session state changes.
type WSHandler struct {
	compose  *service.ComposeService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(compose *service.ComposeService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		compose:  compose,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/compose/:session_id/stream
// Pushes a state event on every session change so a second tab or a
// supervising client can mirror the wizard live.
func (h *WSHandler) SessionStream(c *gin.Context) {
	sessionID := c.Param("session_id")

	snapshots, cancel, err := h.compose.Watch(sessionID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionExpired)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID).Logger()
	wsLog.Info().Msg("Session stream opened")

	// Initial frame so the client starts from a known state.
	if snap, err := h.compose.Snapshot(sessionID); err == nil {
		if err := ws.WriteTyped(conn, stateEvent(snap)); err != nil {
			return
		}
	}

	// Reader side: consume pings and detect disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var req ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &req); err != nil {
				return
			}
			if req.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
				continue
			}
			_ = ws.WriteError(conn, "unsupported action")
		}
	}()

	closeReason := service.CloseReasonClosed
	for {
		select {
		case <-done:
			wsLog.Info().Msg("Session stream client disconnected")
			return
		case snap, ok := <-snapshots:
			if !ok {
				// The session ended: tell the client why it will see no
				// further frames.
				_ = ws.WriteTyped(conn, ws.ClosedEvent{
					Event:     ws.EventClosed,
					SessionID: sessionID,
					Reason:    closeReason,
				})
				wsLog.Info().Str("reason", closeReason).Msg("Session stream closed with session")
				return
			}
			if snap.CloseReason != "" {
				// Final frame; the closed event follows on channel close.
				closeReason = snap.CloseReason
				continue
			}
			if err := ws.WriteTyped(conn, stateEvent(snap)); err != nil {
				wsLog.Warn().Err(err).Msg("Session stream write failed")
				return
			}
		}
	}
}

func stateEvent(snap service.Snapshot) ws.StateEvent {
	return ws.StateEvent{
		Event:       ws.EventState,
		SessionID:   snap.SessionID,
		State:       string(snap.State),
		LectureID:   snap.LectureID,
		PreviewExam: snap.PreviewExamID,
		PoolSize:    snap.PoolSize,
		PickedCount: snap.PickedCount,
	}
}
