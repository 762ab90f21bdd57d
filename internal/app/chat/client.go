/*
Package chat contains the realtime core of the server.

This file defines Client, the WebSocket transport around a Session. It
manages the read and write pumps, heartbeats, and cleanup on disconnect.
*/
package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pulsechat/internal/app/user"
	"pulsechat/internal/pkg/logx"
)

const (
	// timeout for a single write to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum wait for a Pong after a Ping.
	pongWait = 60 * time.Second

	// frequency of server Pings.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size in bytes of one inbound frame.
	maxMessageSize = 8192
)

// Client binds one WebSocket connection to its session.
type Client struct {
	// session is the coordinator-facing side of the connection.
	session *Session

	// conn is the underlying WebSocket connection.
	conn *websocket.Conn

	// coord is the owning coordinator, needed for deregistration.
	coord *Coordinator

	// logger carries connection context.
	logger zerolog.Logger
}

// NewClient wraps an upgraded connection for the given authenticated user.
func NewClient(coord *Coordinator, conn *websocket.Conn, usr user.User) *Client {
	session := NewSession(coord, usr)

	clientLogger := logx.Logger().With().
		Str("conn_id", string(session.id)).
		Str("username", usr.Username).
		Logger()

	return &Client{
		session: session,
		conn:    conn,
		coord:   coord,
		logger:  clientLogger,
	}
}

// Session returns the coordinator-facing session of this connection.
func (c *Client) Session() *Session {
	return c.session
}

// ReadPump reads frames from the connection and dispatches them to the
// session handlers, one at a time. It handles heartbeats and performs
// cleanup when the connection closes for any reason.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := context.Background()

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		c.processInbound(ctx, frame)
	}
}

// cleanupOnDisconnect deregisters the session and closes the connection.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	c.coord.Deregister(c.session)

	if err := c.conn.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Connection close error")
	}
}

// processInbound decodes one frame and dispatches it by event type.
// Malformed or unknown frames are logged and ignored.
func (c *Client) processInbound(ctx context.Context, frame []byte) {
	var inbound Envelope
	if err := json.Unmarshal(frame, &inbound); err != nil {
		c.logger.Warn().Err(err).Bytes("frame", frame).Msg("Client sent invalid JSON")
		return
	}

	switch inbound.Type {
	case EventJoin:
		c.session.HandleJoin(ctx)

	case EventSendMessage:
		var payload SendMessagePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid sendMessage payload")
			return
		}
		c.session.HandleSendMessage(ctx, payload)

	case EventTyping:
		c.session.HandleTyping()

	case EventStopTyping:
		c.session.HandleStopTyping()

	default:
		c.logger.Warn().Str("event_type", inbound.Type).Msg("Client sent unsupported event type")
	}
}

// WritePump writes queued frames to the connection and keeps the
// heartbeat alive. It exits when the session is deregistered or a write
// fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame := <-c.session.send:
			if !c.writeFrame(frame) {
				return
			}

		case <-c.session.done:
			c.writeClose()
			return

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeFrame writes one queued frame. Returns false when the pump should stop.
func (c *Client) writeFrame(frame []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writeClose sends a close frame after the session was deregistered.
func (c *Client) writeClose() {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing close frame")
	}
}

// writePing sends a heartbeat Ping. Returns false when the pump should stop.
func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
