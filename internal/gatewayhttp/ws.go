package gatewayhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thunderfed/gateway/internal/coordinator"
	"github.com/thunderfed/gateway/logger"
)

// graphql-transport-ws message types (the GraphQL over WebSocket
// Protocol the Apollo/graphql-ws ecosystem converged on, superseding
// the older subscriptions-transport-ws "GQL_*" naming the teacher's
// own graphql/server.go predates).
const (
	wsConnectionInit = "connection_init"
	wsConnectionAck  = "connection_ack"
	wsPing           = "ping"
	wsPong           = "pong"
	wsSubscribe      = "subscribe"
	wsNext           = "next"
	wsError          = "error"
	wsComplete       = "complete"
)

var upgrader = websocket.Upgrader{
	Subprotocols:    []string{"graphql-transport-ws"},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsMessage mirrors the protocol's envelope: {id?, type, payload?}.
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsConn is one client connection's bookkeeping: a write mutex
// (gorilla's *websocket.Conn forbids concurrent writers) and the set
// of subscription IDs currently running, so a "complete" from the
// client can cancel the matching goroutine. Grounded on the teacher's
// graphql/server.go conn type (writeMu + subscriptions map), adapted
// from its reactive.Rerunner-per-subscription model to this gateway's
// request/response pipeline: each "subscribe" runs the bound
// operation once through the Coordinator and streams a single `next`
// before `complete`, since live incremental re-delivery needs a
// per-field subscription resolver wired to the schema's
// ResolverExtension entries — a follow-up (see DESIGN.md).
type wsConn struct {
	writeMu sync.Mutex
	socket  *websocket.Conn

	coordinator *coordinator.Coordinator
	log         logger.Logger

	mu            sync.Mutex
	subscriptions map[string]context.CancelFunc
}

// WebSocketHandler upgrades the connection and runs the
// graphql-transport-ws protocol loop against c.
func WebSocketHandler(c *coordinator.Coordinator, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if log == nil {
			log = logger.New()
		}
		conn := &wsConn{
			socket:        socket,
			coordinator:   c,
			log:           log,
			subscriptions: map[string]context.CancelFunc{},
		}
		conn.run(r.Context())
	})
}

func (c *wsConn) run(ctx context.Context) {
	defer c.socket.Close()

	for {
		var msg wsMessage
		if err := c.socket.ReadJSON(&msg); err != nil {
			c.cancelAll()
			return
		}

		switch msg.Type {
		case wsConnectionInit:
			c.writeOrClose(wsMessage{Type: wsConnectionAck})
		case wsPing:
			c.writeOrClose(wsMessage{Type: wsPong})
		case wsSubscribe:
			c.handleSubscribe(ctx, msg)
		case wsComplete:
			c.cancel(msg.ID)
		}
	}
}

func (c *wsConn) handleSubscribe(ctx context.Context, msg wsMessage) {
	var body requestBody
	if err := json.Unmarshal(msg.Payload, &body); err != nil {
		c.writeOrClose(wsMessage{ID: msg.ID, Type: wsError, Payload: mustMarshal([]string{err.Error()})})
		return
	}

	c.mu.Lock()
	if _, running := c.subscriptions[msg.ID]; running {
		c.mu.Unlock()
		c.writeOrClose(wsMessage{ID: msg.ID, Type: wsError, Payload: mustMarshal([]string{"subscriber already exists for id " + msg.ID})})
		return
	}
	subCtx, cancel := context.WithCancel(ctx)
	c.subscriptions[msg.ID] = cancel
	c.mu.Unlock()

	go func() {
		defer c.cancel(msg.ID)
		result := c.coordinator.Execute(subCtx, body.toCoordinatorRequest())
		if subCtx.Err() != nil {
			return
		}
		c.writeOrClose(wsMessage{ID: msg.ID, Type: wsNext, Payload: mustMarshal(dataEnvelope(result))})
		c.writeOrClose(wsMessage{ID: msg.ID, Type: wsComplete})
	}()
}

func (c *wsConn) cancel(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.subscriptions[id]; ok {
		cancel()
		delete(c.subscriptions, id)
	}
}

func (c *wsConn) cancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cancel := range c.subscriptions {
		cancel()
		delete(c.subscriptions, id)
	}
}

func (c *wsConn) writeOrClose(msg wsMessage) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.socket.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.socket.WriteJSON(msg); err != nil {
		c.log.Error("websocket write failed", "error", err)
	}
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
