package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/acadio/acadio-backend/internal/middleware"
	"github.com/acadio/acadio-backend/internal/response"
	"github.com/acadio/acadio-backend/internal/service"
	ws "github.com/acadio/acadio-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
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

// WSHandler streams the authoritative session clock to quiz-taking clients.
// The server owns the deadline; clients subscribe here instead of trusting
// their local clock.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionClockStream godoc
// WS /ws/v1/student/quizzes/:quiz_id/clock
// Upgrades to WebSocket. Clients send sync to get the remaining seconds of
// their active session; an expired session gets one expired event and the
// connection closes.
func (h *WSHandler) SessionClockStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := strconv.Atoi(c.Param("quiz_id"))
	if err != nil || quizID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	studentID := claims.UserID

	wsLog := h.log.With().
		Int("student_id", studentID).
		Int("quiz_id", quizID).
		Logger()

	// Send the initial clock state; no active session means nothing to stream.
	if !h.sendClock(c, conn, wsLog, studentID, quizID) {
		return
	}

	wsLog.Debug().Msg("Clock stream connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		case ws.ActionSync:
			if !h.sendClock(c, conn, wsLog, studentID, quizID) {
				return
			}
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// sendClock writes the current remaining time. Returns false when the stream
// should end (expired or no session).
func (h *WSHandler) sendClock(c *gin.Context, conn *websocket.Conn, wsLog zerolog.Logger, studentID, quizID int) bool {
	remaining, err := h.sessionService.Clock(c.Request.Context(), studentID, quizID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionExpired):
			ws.WriteTyped(conn, ws.ExpiredResponse{
				Event:   ws.EventExpired,
				Message: response.GetMessage(response.ErrSessionExpired),
			})
		case errors.Is(err, service.ErrSessionNotFound):
			ws.WriteError(conn, "no active session for this quiz")
		default:
			wsLog.Error().Err(err).Msg("Clock read failed")
			ws.WriteError(conn, "clock unavailable")
		}
		return false
	}

	ws.WriteTyped(conn, ws.ClockResponse{Event: ws.EventClock, TimeRemaining: remaining})
	return true
}
