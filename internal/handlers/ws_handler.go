package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/logger"
	"moneytracker/internal/middleware"
	"moneytracker/internal/realtime"
)

// WSHandler upgrades authenticated clients to a WebSocket connection that
// receives change events for their own data.
type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The access token authenticates the connection; cross-origin
			// browser clients are expected.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Connect upgrades the request to a WebSocket connection.
// Browsers cannot set headers on WebSocket requests, so the access token is
// also accepted as a "token" query parameter.
func (h *WSHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	claims, err := middleware.ParseToken(token)
	if err != nil || claims.TokenType == "refresh" {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Get().Warnw("websocket upgrade failed", "error", err.Error())
		return
	}

	h.hub.Register(claims.UserID, conn)
	logger.Get().Debugw("websocket connected", "user_id", claims.UserID)

	// Inbound messages are ignored; the read loop only detects the close.
	go func() {
		defer func() {
			h.hub.Unregister(claims.UserID, conn)
			conn.Close()
			logger.Get().Debugw("websocket disconnected", "user_id", claims.UserID)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
