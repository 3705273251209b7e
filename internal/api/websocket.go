package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins; this is a local-machine control surface
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// messageType identifies a WebSocket message.
type messageType string

const (
	// typeStatus is pushed by the server with the current engine state
	typeStatus messageType = "status"
	// typePause is sent by a client to toggle pause
	typePause messageType = "pause"
	// typeAbort is sent by a client to abort the active session
	typeAbort messageType = "abort"
)

// message is the generic container for all WebSocket messages.
type message struct {
	Type    messageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// statusInterval is how often the current status is pushed to clients.
const statusInterval = time.Second

// wsManager handles WebSocket connections and status broadcasting.
type wsManager struct {
	server     *Server
	clients    map[*wsClient]bool
	clientsMu  sync.RWMutex
	register   chan *wsClient
	unregister chan *wsClient
	shutdown   chan struct{}
}

// wsClient represents a connected control client.
type wsClient struct {
	manager *wsManager
	conn    *websocket.Conn
	send    chan []byte
	ip      string
}

func newWSManager(s *Server) *wsManager {
	return &wsManager{
		server:     s,
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		shutdown:   make(chan struct{}),
	}
}

func (m *wsManager) start() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-m.register:
			m.clientsMu.Lock()
			m.clients[client] = true
			total := len(m.clients)
			m.clientsMu.Unlock()
			m.server.log.Info().Str("remote", client.ip).Int("clients", total).Msg("ws client registered")

		case client := <-m.unregister:
			m.clientsMu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
			}
			m.clientsMu.Unlock()

		case <-ticker.C:
			m.broadcastStatus()

		case <-m.shutdown:
			return
		}
	}
}

// broadcastStatus pushes the current engine status to all clients.
func (m *wsManager) broadcastStatus() {
	m.broadcastMessage(message{Type: typeStatus, Payload: m.server.hooks.Status()})
}

func (m *wsManager) broadcastMessage(msg message) {
	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		m.server.log.Error().Err(err).Msg("marshal broadcast message")
		return
	}

	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	for client := range m.clients {
		select {
		case client.send <- jsonMsg:
		default:
			close(client.send)
			delete(m.clients, client)
		}
	}
}

func (m *wsManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.server.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	client := &wsClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 256),
		ip:      r.RemoteAddr,
	}

	m.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the engine.
func (c *wsClient) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.server.log.Warn().Err(err).Msg("ws read error")
			}
			break
		}

		c.handleMessage(data)
	}
}

// writePump pumps messages from the manager to the websocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(50 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The manager closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) handleMessage(data []byte) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.manager.server.log.Warn().Err(err).Msg("ws invalid message")
		return
	}

	switch msg.Type {
	case typePause:
		c.manager.server.hooks.TogglePause()
		c.manager.broadcastStatus()

	case typeAbort:
		c.manager.server.hooks.Abort()
		c.manager.broadcastStatus()

	default:
		c.manager.server.log.Warn().Str("type", string(msg.Type)).Msg("ws unknown message type")
	}
}
