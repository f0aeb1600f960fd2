package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/relaycycle/internal/infrastructure/config"
	"github.com/nerrad567/relaycycle/internal/infrastructure/logging"
)

// Event channels a client can subscribe to.
const (
	ChannelRelayUpdate = "relay_update" // payload: relay.Relay
	ChannelCycleUpdate = "cycle_update" // payload: scheduler.CycleEvent
)

// Message types on the socket.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

const wsSendBufferSize = 256

// WSMessage is the envelope of every server-to-client frame.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload carries the channel list of (un)subscribe requests.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

func encodeWS(msg WSMessage) ([]byte, error) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return json.Marshal(msg)
}

// Hub fans relay and cycle changes out to WebSocket clients. Each client
// starts on the hub's default channels.
type Hub struct {
	cfg             config.WebSocketConfig
	logger          *logging.Logger
	defaultChannels []string

	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one connection. Outbound frames are queued on send and
// written by writePump.
type WSClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu            sync.RWMutex
	subscriptions map[string]struct{}
}

// Cross-origin policy is enforced by corsMiddleware.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// NewHub returns a hub whose clients start on defaultChannels, or on both
// relay and cycle updates when none are given.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger, defaultChannels ...string) *Hub {
	if len(defaultChannels) == 0 {
		defaultChannels = []string{ChannelRelayUpdate, ChannelCycleUpdate}
	}
	return &Hub{
		cfg:             cfg,
		logger:          logger,
		defaultChannels: slices.Clone(defaultChannels),
		clients:         make(map[*WSClient]struct{}),
	}
}

func (h *Hub) newClient(conn *websocket.Conn) *WSClient {
	c := &WSClient{
		id:            uuid.NewString(),
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}, len(h.defaultChannels)),
	}
	for _, ch := range h.defaultChannels {
		c.subscriptions[ch] = struct{}{}
	}
	return c
}

// Run blocks until ctx ends, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register starts delivering broadcasts to client.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "client_id", client.id, "clients", n)
}

// Unregister is idempotent. Whoever removes the client from the map closes
// its send channel, so shutdown and a failing read pump cannot both close
// it.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	close(client.send)
	h.logger.Debug("websocket client disconnected", "client_id", client.id, "clients", n)
}

// subscribers snapshots the clients listening on channel. No client lock is
// taken while the hub lock is held.
func (h *Hub) subscribers(channel string) []*WSClient {
	h.mu.RLock()
	all := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	return slices.DeleteFunc(all, func(c *WSClient) bool { return !c.isSubscribed(channel) })
}

// Broadcast queues payload as an event on channel. Clients with a full
// buffer miss the event rather than stall the caller.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := encodeWS(WSMessage{Type: WSTypeEvent, EventType: channel, Payload: payload})
	if err != nil {
		h.logger.Error("failed to encode websocket event", "channel", channel, "error", err)
		return
	}
	for _, c := range h.subscribers(channel) {
		c.trySend(data)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// handleWebSocket upgrades GET /ws. authMiddleware has already run.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := s.hub.newClient(conn)
	s.hub.Register(client)
	go client.writePump(s.wsCfg)
	go client.readPump(s.wsCfg)
}

// wsDeadlines derives the keepalive timings from config.
func wsDeadlines(cfg config.WebSocketConfig) (ping, readWait, writeWait time.Duration) {
	ping = time.Duration(cfg.PingInterval) * time.Second
	writeWait = time.Duration(cfg.PongTimeout) * time.Second
	return ping, ping + writeWait, writeWait
}

// readPump owns reads. Any inbound frame, not only pongs, extends the read
// deadline.
func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	_, readWait, _ := wsDeadlines(cfg)
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(readWait)) }

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	extend() //nolint:errcheck // a failed deadline surfaces on the next read
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "client_id", c.id, "error", err)
			}
			return
		}
		extend() //nolint:errcheck // see above
		c.handleMessage(data)
	}
}

// writePump owns writes: queued frames plus a ping every PingInterval.
func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	ping, _, writeWait := wsDeadlines(cfg)
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write reports failure
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if write(websocket.TextMessage, data) != nil {
				return
			}
		case <-ticker.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

// wsRequest is the inbound form of WSMessage; the payload is decoded per
// message type.
type wsRequest struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (c *WSClient) handleMessage(data []byte) {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch req.Type {
	case WSTypeSubscribe, WSTypeUnsubscribe:
		c.changeSubscriptions(req)
	case WSTypePing:
		c.sendResponse(req.ID, WSTypePong, nil)
	default:
		c.sendError(req.ID, "unknown message type: "+req.Type)
	}
}

// changeSubscriptions applies a subscribe or unsubscribe request. Channels
// the hub never publishes on are rejected as a whole.
func (c *WSClient) changeSubscriptions(req wsRequest) {
	var sub WSSubscribePayload
	if len(req.Payload) == 0 || json.Unmarshal(req.Payload, &sub) != nil {
		c.sendError(req.ID, "invalid "+req.Type+" payload")
		return
	}
	for _, ch := range sub.Channels {
		if !knownChannel(ch) {
			c.sendError(req.ID, "unknown channel: "+ch)
			return
		}
	}

	c.mu.Lock()
	for _, ch := range sub.Channels {
		if req.Type == WSTypeSubscribe {
			c.subscriptions[ch] = struct{}{}
		} else {
			delete(c.subscriptions, ch)
		}
	}
	c.mu.Unlock()

	c.hub.logger.Debug("websocket subscriptions changed", "client_id", c.id, "op", req.Type, "channels", sub.Channels)
	c.sendResponse(req.ID, WSTypeResponse, map[string]any{
		req.Type + "d": sub.Channels,
	})
}

func knownChannel(ch string) bool {
	return ch == ChannelRelayUpdate || ch == ChannelCycleUpdate
}

// trySend queues data without blocking. A full buffer drops the frame; a
// send racing Unregister's close is absorbed.
func (c *WSClient) trySend(data []byte) {
	defer func() { _ = recover() }() //nolint:errcheck // send on closed channel

	select {
	case c.send <- data:
	default:
	}
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

func (c *WSClient) sendResponse(id, msgType string, payload any) {
	if data, err := encodeWS(WSMessage{Type: msgType, ID: id, Payload: payload}); err == nil {
		c.trySend(data)
	}
}

func (c *WSClient) sendError(id, message string) {
	c.sendResponse(id, WSTypeError, map[string]string{"message": message})
}
