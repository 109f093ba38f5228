// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// Connection binds one WebSocket to the hub. Reads and writes run on
// separate goroutines; outbound frames pass through a bounded channel so a
// stalled peer cannot block the hub.
type Connection struct {
	ws       *websocket.Conn
	entityID string

	send      chan models.ServerMessage
	closeOnce sync.Once

	logger *logger.Logger
}

// NewConnection wraps an upgraded WebSocket for the given session entity.
// sendBufferSize bounds the outbound queue; when it overflows the hub drops
// the connection.
func NewConnection(ws *websocket.Conn, entityID string, sendBufferSize int, log *logger.Logger) *Connection {
	return &Connection{
		ws:       ws,
		entityID: entityID,
		send:     make(chan models.ServerMessage, sendBufferSize),
		logger:   log,
	}
}

// EntityID returns the authenticated session entity.
func (c *Connection) EntityID() string {
	return c.entityID
}

// Send enqueues one outbound frame without blocking. Returns false when the
// outbound queue is full.
func (c *Connection) Send(msg models.ServerMessage) bool {
	defer func() {
		// Send may race with Close; a send on the closed channel means the
		// connection is gone, which is the same as a full queue.
		_ = recover()
	}()

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close shuts the outbound queue down, which terminates the write pump.
// Safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// ReadPump consumes inbound frames until the peer disconnects or the
// context is canceled. Blocks; the transport runs it on the request
// goroutine. Releases all hub state on exit.
func (c *Connection) ReadPump(ctx context.Context, h *Hub) {
	log := logger.FromContext(ctx)

	defer func() {
		h.Disconnect(c)
		c.Close()
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Err(err).Str("func", "*Connection.ReadPump").
					Str("entity_id", c.entityID).
					Msg("realtime connection closed unexpectedly")
			}
			return
		}

		var msg models.ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Err(err).Str("func", "*Connection.ReadPump").
				Str("entity_id", c.entityID).
				Msg("malformed realtime frame")
			h.sendError(c, "malformed message")
			continue
		}

		h.HandleMessage(ctx, c, msg)
	}
}

// WritePump drains the outbound queue to the socket and keeps the
// connection alive with periodic pings. Exits when Close shuts the queue
// down or a write fails.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				c.logger.Err(err).Str("func", "*Connection.WritePump").
					Str("entity_id", c.entityID).
					Msg("error writing realtime frame")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
