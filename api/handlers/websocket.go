package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/firtrack/fir-tracking-api/dispatch"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 32
)

// Socket handles websocket connections and feeds the subscription registry
type Socket struct {
	Registry  *dispatch.Registry
	JWTSecret []byte
}

// wsEvent is the frame shape delivered to clients
type wsEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// wsControl is the frame shape clients send to manage case subscriptions
type wsControl struct {
	Action string `json:"action"`
	CaseID string `json:"caseId"`
}

// wsClient is one connected channel. Events are queued on a buffered channel
// drained by writePump, so a slow or dead peer never blocks a publish.
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan wsEvent

	mu     sync.Mutex
	closed bool
}

func (c *wsClient) ID() string { return c.id }

// Send queues an event for delivery. Delivery is best-effort: a full buffer
// or a closed client drops the event.
func (c *wsClient) Send(event string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("channel closed")
	}
	select {
	case c.send <- wsEvent{Event: event, Data: payload}:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ServeWebsocket upgrades the connection, verifies the ticket, registers the
// channel, and runs the read loop until disconnect
func (s Socket) ServeWebsocket(w http.ResponseWriter, r *http.Request) {
	userID, err := s.verifyTicket(r.URL.Query().Get("ticket"))
	if err != nil {
		zap.S().Warnw("websocket ticket rejected", "error", err)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "unauthorized"}`))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade error", "error", err)
		return
	}

	client := &wsClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan wsEvent, sendBufferSize),
	}

	s.Registry.Connect(client)
	zap.S().Infow("websocket client connected",
		"channel", client.id,
		"userId", userID,
	)

	go client.writePump()
	s.readPump(client)
}

// readPump processes join/leave control frames until the connection dies,
// then drops the channel from every scope
func (s Socket) readPump(client *wsClient) {
	defer func() {
		s.Registry.Drop(client)
		client.close()
		client.conn.Close()
		zap.S().Infow("websocket client disconnected", "channel", client.id)
	}()

	for {
		var ctrl wsControl
		if err := client.conn.ReadJSON(&ctrl); err != nil {
			return
		}
		switch ctrl.Action {
		case "join":
			if ctrl.CaseID != "" {
				s.Registry.Join(client, ctrl.CaseID)
				zap.S().Debugw("channel joined case scope",
					"channel", client.id,
					"caseId", ctrl.CaseID,
				)
			}
		case "leave":
			if ctrl.CaseID != "" {
				s.Registry.Leave(client, ctrl.CaseID)
			}
		default:
			zap.S().Debugw("ignoring unknown control frame",
				"channel", client.id,
				"action", ctrl.Action,
			)
		}
	}
}

func (c *wsClient) writePump() {
	for event := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(event); err != nil {
			c.conn.Close()
			// drain until close() so Send never blocks
			for range c.send {
			}
			return
		}
	}
	c.conn.Close()
}

func (s Socket) verifyTicket(ticket string) (string, error) {
	if ticket == "" {
		return "", errors.New("missing ticket")
	}
	if len(s.JWTSecret) == 0 {
		return "", errors.New("JWT_SECRET is not set")
	}

	token, err := jwt.Parse(ticket, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid ticket")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("missing subject")
	}
	return sub, nil
}
