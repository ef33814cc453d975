package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/picklecup/internal/autosave"
	"github.com/abrezinsky/picklecup/internal/logger"
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/services"
)

// Message types sent to dashboard clients.
const (
	TypeTournamentUpdated = "tournament_updated"
	TypeCategoryUpdated   = "category_updated"
	TypeSaveStatus        = "save_status"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	// Dashboards are opened from phones on the venue LAN under varying hostnames.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// CategoryPayload is sent with category_updated.
type CategoryPayload struct {
	Key      models.CategoryKey   `json:"key"`
	Category *models.CategoryData `json:"category"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	log        logger.Logger
	clients    map[*Client]bool
	broadcast  chan models.WSMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex
	tournament services.TournamentServicer
	syncer     services.SyncServicer
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan models.WSMessage
}

// New creates a new Hub. New clients receive the current snapshot from
// tournament and the save status from syncer.
func New(log logger.Logger, tournament services.TournamentServicer, syncer services.SyncServicer) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.WSMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		tournament: tournament,
		syncer:     syncer,
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// Stop ends the main loop and closes every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			// The greeting is queued before the client becomes visible to
			// broadcasts so it always arrives first.
			h.greet(client)
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client connected", "total_clients", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "total_clients", total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than stall everyone else.
					delete(h.clients, client)
					close(client.send)
					h.log.Warn("Dropped slow websocket client")
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) greet(c *Client) {
	ctx := context.Background()
	if h.tournament != nil {
		c.send <- models.WSMessage{Type: TypeTournamentUpdated, Payload: h.tournament.Snapshot(ctx)}
	}
	if h.syncer != nil {
		c.send <- models.WSMessage{Type: TypeSaveStatus, Payload: h.syncer.Status(ctx).Save}
	}
}

// BroadcastMessage queues a message for every connected client. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) BroadcastMessage(msgType string, payload any) {
	select {
	case h.broadcast <- models.WSMessage{Type: msgType, Payload: payload}:
	default:
		h.log.Warn("Broadcast queue full, message dropped", "type", msgType)
	}
}

// BroadcastTournament sends the whole tournament.
func (h *Hub) BroadcastTournament(t *models.Tournament) {
	h.BroadcastMessage(TypeTournamentUpdated, t)
}

// BroadcastCategory sends one category after it changed.
func (h *Hub) BroadcastCategory(key models.CategoryKey, cat *models.CategoryData) {
	h.BroadcastMessage(TypeCategoryUpdated, CategoryPayload{Key: key, Category: cat})
}

// BroadcastSaveStatus implements the autosave status callback.
func (h *Hub) BroadcastSaveStatus(st autosave.Status) {
	h.BroadcastMessage(TypeSaveStatus, st)
}

// readPump keeps the connection alive and notices when the client goes away.
// Dashboards never send anything meaningful.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			return
		}
		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.hub.log.Debug("Received message", "type", msg.Type)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles websocket requests from clients
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan models.WSMessage, sendBuffer),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
