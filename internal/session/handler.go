package session

import (
	"agent-workspace/internal/chat"
	"agent-workspace/internal/document"
	"agent-workspace/internal/store"
	"agent-workspace/internal/worker"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	sendBufferSize = 64
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	writeWait      = 5 * time.Second
)

// Handler upgrades chat session connections to WebSocket and runs one
// Session per connection.
type Handler struct {
	gateway   store.Gateway
	chats     chat.Service
	documents document.Service
	pool      *worker.Pool
	upgrader  websocket.Upgrader
}

func NewHandler(gateway store.Gateway, chats chat.Service, documents document.Service, pool *worker.Pool) *Handler {
	return &Handler{
		gateway:   gateway,
		chats:     chats,
		documents: documents,
		pool:      pool,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle runs the session socket for one agent conversation. The user id
// comes from the auth middleware; workspace and agent from the route.
func (h *Handler) Handle(c *gin.Context) {
	workspaceID := c.Param("workspaceId")
	agentID := c.Param("agentId")
	userID := c.GetString("user_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sendCh := make(chan Event, sendBufferSize)
	commandCh := make(chan Command, sendBufferSize)
	done := make(chan struct{})

	emit := func(ev Event) {
		select {
		case sendCh <- ev:
		default:
			log.Printf("[WS] Dropped event %s (buffer full)", ev.Event)
		}
	}

	sess := New(h.gateway, h.chats, h.documents, h.pool, workspaceID, agentID, userID, emit)
	if err := sess.Start(c.Request.Context()); err != nil {
		log.Printf("[WS] Failed to start session for agent %s: %v", agentID, err)
		return
	}
	defer sess.Close()

	// Reader goroutine, feeds commands and keeps the connection alive.
	go func() {
		defer close(done)
		conn.SetReadLimit(1 << 16)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cmd Command
			if err := json.Unmarshal(data, &cmd); err != nil {
				log.Printf("[WS] Bad command: %v", err)
				continue
			}
			commandCh <- cmd
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	var writeMu sync.Mutex

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-done:
			return
		case cmd := <-commandCh:
			sess.HandleCommand(c.Request.Context(), cmd)
		case <-ticker.C:
			writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				return
			}
		case ev := <-sendCh:
			writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteJSON(ev)
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
