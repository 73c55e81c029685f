// internal/handlers/stream.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/watch4deal/admin-backend/internal/panel"
	"github.com/watch4deal/admin-backend/internal/utils"
)

const (
	streamWriteWait = 10 * time.Second
	streamPingEvery = 30 * time.Second
)

// StreamHandler pushes the panel view over a websocket whenever the
// controller's state changes, so the admin UI re-renders without polling.
type StreamHandler struct {
	panels   *panel.Manager
	upgrader websocket.Upgrader
}

func NewStreamHandler(panels *panel.Manager) *StreamHandler {
	return &StreamHandler{
		panels: panels,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// GET /admin/stream
func (h *StreamHandler) Stream(c *gin.Context) {
	sessionID, exists := utils.GetSessionIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}
	ctrl, ok := h.panels.Get(sessionID)
	if !ok {
		utils.UnauthorizedResponse(c, "Session terminated")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	changes, cancel := ctrl.Watch()
	defer cancel()

	// Drain the client side; its close error ends the stream.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	// Initial state, then one frame per change tick.
	if !h.writeView(conn, ctrl) {
		return
	}

	for {
		select {
		case <-changes:
			if ctrl.Closed() {
				return
			}
			if !h.writeView(conn, ctrl) {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-clientGone:
			return
		}
	}
}

func (h *StreamHandler) writeView(conn *websocket.Conn, ctrl *panel.Controller) bool {
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(ctrl.View()); err != nil {
		logrus.WithError(err).Debug("Websocket write failed")
		return false
	}
	return true
}
