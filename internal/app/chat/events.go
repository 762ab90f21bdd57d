/*
Package chat contains the realtime core of the server.

This file defines the wire envelope and the inbound/outbound event types
exchanged with clients.
*/
package chat

import "encoding/json"

// Inbound event types.
const (
	// EventJoin requests recent history and starts live participation.
	EventJoin = "join"

	// EventSendMessage carries a new chat message from the client.
	EventSendMessage = "sendMessage"

	// EventTyping signals the client started composing.
	EventTyping = "typing"

	// EventStopTyping signals the client stopped composing.
	EventStopTyping = "stopTyping"
)

// Outbound event types.
const (
	// EventMessages delivers the history snapshot to the joining connection only.
	EventMessages = "messages"

	// EventMessage delivers one persisted chat message to all connections.
	EventMessage = "message"

	// EventUserTyping notifies all other connections that a user is composing.
	EventUserTyping = "userTyping"

	// EventUserStoppedTyping notifies all other connections that a user stopped composing.
	EventUserStoppedTyping = "userStoppedTyping"

	// EventUserList delivers the ordered list of online usernames to all connections.
	EventUserList = "userList"

	// EventError reports a failure privately to the connection that caused it.
	EventError = "error"
)

// Envelope is the frame exchanged on the wire: a type tag plus a payload
// whose shape depends on the type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SendMessagePayload is the inbound payload of a sendMessage event.
type SendMessagePayload struct {
	Text   string `json:"text"`
	Avatar string `json:"avatar,omitempty"`

	// User is accepted on the wire but never trusted: the broadcast author
	// always comes from the connection's authenticated identity.
	User string `json:"user,omitempty"`
}

// TypingPayload is the outbound payload of userTyping and userStoppedTyping.
type TypingPayload struct {
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorPayload is the outbound payload of an error event.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// encodeEvent marshals a typed envelope once so a broadcast serializes its
// payload a single time regardless of audience size.
func encodeEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		Type:    eventType,
		Payload: raw,
	})
}
