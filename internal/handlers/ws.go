package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ridecrew/ridecrew/internal/utils"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// feedClient serializes writes; a websocket connection allows one writer at a time.
type feedClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *feedClient) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *feedClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// FeedHub fans feed refresh notices out to websocket clients, per group.
type FeedHub struct {
	mu       sync.RWMutex
	clients  map[string]map[*feedClient]bool
	upgrader websocket.Upgrader
}

func NewFeedHub(allowedOrigins []string) *FeedHub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &FeedHub{
		clients: make(map[string]map[*feedClient]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

func (hub *FeedHub) register(groupID string, client *feedClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if hub.clients[groupID] == nil {
		hub.clients[groupID] = make(map[*feedClient]bool)
	}
	hub.clients[groupID][client] = true
}

func (hub *FeedHub) unregister(groupID string, client *feedClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if clients, exists := hub.clients[groupID]; exists {
		delete(clients, client)
		if len(clients) == 0 {
			delete(hub.clients, groupID)
		}
	}
}

// ClientCount reports how many sockets are watching groupID.
func (hub *FeedHub) ClientCount(groupID string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.clients[groupID])
}

// NotifyGroup tells every client watching groupID to reload the feed.
func (hub *FeedHub) NotifyGroup(groupID string) {
	hub.mu.RLock()
	clients := make([]*feedClient, 0, len(hub.clients[groupID]))
	for client := range hub.clients[groupID] {
		clients = append(clients, client)
	}
	hub.mu.RUnlock()

	for _, client := range clients {
		err := client.writeJSON(map[string]string{
			"type":     "refresh",
			"message":  "Group feed updated",
			"group_id": groupID,
		})

		if err != nil {
			log.WithError(err).WithField("group_id", groupID).Debug("Dropping feed client")
			hub.unregister(groupID, client)
			client.conn.Close()
		}
	}
}

func (h *Handler) WebSocket(c *gin.Context) {
	groupID, err := utils.GetGroupID(c)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Group ID is required"})
		return
	}

	if _, err := h.Groups.Get(c.Request.Context(), groupID); err != nil {
		respondError(c, err, "Failed to open feed")
		return
	}

	hub := h.Hub

	conn, err := hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.WithError(err).Warn("Failed to set initial read deadline")
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	client := &feedClient{conn: conn}
	hub.register(groupID, client)

	defer func() {
		hub.unregister(groupID, client)
		conn.Close()
		log.WithField("group_id", groupID).Debug("WebSocket connection closed")
	}()

	err = client.writeJSON(map[string]string{
		"type":     "connected",
		"message":  "WebSocket connection established",
		"group_id": groupID,
	})

	if err != nil {
		log.WithError(err).Warn("Failed to send welcome message")
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := client.ping(); err != nil {
					log.WithError(err).WithField("group_id", groupID).Debug("Ping failed")
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("group_id", groupID).Warn("WebSocket error")
			}
			break
		}
	}
}
