package handlers

import (
	"net/http"
	"sync"
	"time"

	"taskflow-api/internal/middleware"
	"taskflow-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

// wsClient implements realtime.Client by wrapping a websocket connection.
// Writes are serialized since events for one user may be published from
// several requests at once.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) Send(message []byte) bool {
	if c == nil || c.conn == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		return false
	}
	return true
}

func (c *wsClient) Close() {
	if c != nil && c.conn != nil {
		_ = c.conn.Close()
	}
}

// WSHandler streams task events to the authenticated user.
type WSHandler struct {
	hub      *realtime.Hub
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WSHandler publishing from hub.
func NewWSHandler(hub *realtime.Hub, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// CORS is already handled at Gin level; allow upgrade from any origin here
				return true
			},
		},
	}
}

// Stream upgrades the connection and registers the client to the hub.
// It requires JWT middleware to have set "user_id" in context.
func (h *WSHandler) Stream(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn}
	h.hub.Register(userID, client)
	h.log.WithField("user_id", userID).Debug("websocket connected")

	// Heartbeat: send periodic pings; close on error
	pingTicker := time.NewTicker(wsPingPeriod)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(wsWriteWait)); err != nil {
					// ping failed; reader loop will exit on next error
					return
				}
			}
		}
	}()
	defer func() {
		close(done)
		pingTicker.Stop()
		h.hub.Unregister(userID, client)
		client.Close()
		h.log.WithField("user_id", userID).Debug("websocket disconnected")
	}()

	// Reader loop: drain messages and keep connection alive via pong handler
	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			// Normal close or error; exit loop
			return
		}
	}
}
