/*
Package message defines the chat message model.

A Message is constructed by the coordinator from an inbound event plus the
connection's authenticated identity, persisted once, and never mutated
afterwards. JSON field names match the wire contract ("user", "timestamp").
*/
package message

import (
	"errors"
	"strings"
	"time"

	"pulsechat/internal/pkg/randx"
)

// DefaultAvatar is used when neither the identity nor the payload carries one.
const DefaultAvatar = "/images/image.png"

// ErrEmptyText is returned when the message text is empty after trimming.
var ErrEmptyText = errors.New("message text is empty")

// Message is a single chat message.
type Message struct {
	// ID uniquely identifies the message in the history store.
	ID string `json:"id"`

	// Text is the trimmed, non-empty message body.
	Text string `json:"text"`

	// Author is the authenticated username of the sender. It is always
	// server-asserted; client-supplied author fields are ignored.
	Author string `json:"user"`

	// Avatar is the resolved avatar URL of the author.
	Avatar string `json:"avatar"`

	// CreatedAt is the persistence timestamp.
	CreatedAt time.Time `json:"timestamp"`
}

// New builds a Message with a fresh id and the current time.
// Text is trimmed; empty text is rejected.
func New(text, author, avatar string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyText
	}

	if avatar == "" {
		avatar = DefaultAvatar
	}

	return Message{
		ID:        randx.MessageID(),
		Text:      text,
		Author:    author,
		Avatar:    avatar,
		CreatedAt: time.Now().UTC(),
	}, nil
}
