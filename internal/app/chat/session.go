/*
Package chat contains the realtime core of the server.

This file defines Session, the per-connection state and the inbound event
handlers. Handlers run serially on the connection's read goroutine, so
events are processed in arrival order and no new event is handled while a
history fetch or persistence call is outstanding.
*/
package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pulsechat/internal/app/message"
	"pulsechat/internal/app/user"
	"pulsechat/internal/pkg/errs"
	"pulsechat/internal/pkg/logx"
	"pulsechat/internal/pkg/randx"
)

const (
	// sendBuffer is the per-connection outbound frame queue capacity.
	sendBuffer = 256

	// maxTextBytes caps the size of inbound message text.
	maxTextBytes = 5000

	// historyFetchTimeout bounds the history read on join.
	historyFetchTimeout = 5 * time.Second

	// persistTimeout bounds one message append.
	persistTimeout = 10 * time.Second
)

// Session is one authenticated connection as seen by the coordinator.
type Session struct {
	// id is the opaque identity of this connection; never reused.
	id ConnID

	// usr is the authenticated identity, immutable for the connection's lifetime.
	usr user.User

	// coord is the owning coordinator.
	coord *Coordinator

	// send queues encoded outbound frames for the transport writer.
	send chan []byte

	// done is closed when the coordinator deregisters the session. The send
	// channel is never closed; done is the only termination signal, so late
	// deliveries from an in-flight operation drop quietly instead of
	// panicking on a closed channel.
	done chan struct{}

	// joined reports whether the connection has issued its join request.
	// Touched only by the connection's event goroutine.
	joined bool

	// logger carries connection context.
	logger zerolog.Logger
}

// NewSession builds a session for an authenticated user with a fresh
// connection identity.
func NewSession(coord *Coordinator, usr user.User) *Session {
	id := ConnID(randx.ConnectionID())

	sessionLogger := logx.Logger().With().
		Str("conn_id", string(id)).
		Str("username", usr.Username).
		Logger()

	return &Session{
		id:     id,
		usr:    usr,
		coord:  coord,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: sessionLogger,
	}
}

// ID returns the connection identity.
func (s *Session) ID() ConnID {
	return s.id
}

// User returns the authenticated identity behind this connection.
func (s *Session) User() user.User {
	return s.usr
}

// HandleJoin fetches recent history and delivers it privately, oldest
// first. A fetch failure is reported privately and the join still
// completes, so the connection keeps participating in live events.
func (s *Session) HandleJoin(ctx context.Context) {
	s.joined = true

	fetchCtx, cancel := context.WithTimeout(ctx, historyFetchTimeout)
	defer cancel()

	recent, err := s.coord.history.FetchRecent(fetchCtx, s.coord.historyLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch recent history on join")
		s.sendError(errs.NewError(errs.ErrHistoryLoadFailed))
		return
	}

	// The store returns newest-first; reverse so clients render chronologically.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	s.sendEvent(EventMessages, recent)
}

// HandleSendMessage validates, persists, and broadcasts one chat message.
// The author is always the connection's authenticated username; any
// client-supplied author field is ignored. On persistence failure the
// sender gets a private error and nothing is broadcast.
func (s *Session) HandleSendMessage(ctx context.Context, payload SendMessagePayload) {
	if !s.joined {
		s.sendError(errs.NewError(errs.ErrJoinRequired))
		return
	}

	if len(payload.Text) > maxTextBytes {
		s.sendError(errs.NewError(errs.ErrMessageContentTooLong))
		return
	}

	avatar := s.usr.Avatar
	if avatar == "" {
		avatar = payload.Avatar
	}
	avatar = s.coord.resolveAvatar(ctx, avatar)

	msg, err := message.New(payload.Text, s.usr.Username, avatar)
	if err != nil {
		s.sendError(errs.NewError(errs.ErrMessageEmpty))
		return
	}

	// The append must survive a disconnect that happens mid-flight: its
	// result is still handled normally even if the sender is gone by then.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.coord.history.AppendMessage(persistCtx, msg); err != nil {
		s.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to persist message")
		s.sendError(errs.NewError(errs.ErrMessageSendFailed))
		return
	}

	s.coord.broadcastEvent(EventMessage, msg, AudienceAll, s.id)
}

// HandleTyping records the user as composing and notifies the other connections.
func (s *Session) HandleTyping() {
	if !s.joined {
		s.sendError(errs.NewError(errs.ErrJoinRequired))
		return
	}
	s.coord.setTyping(s, true)
}

// HandleStopTyping clears the composing state and notifies the other connections.
func (s *Session) HandleStopTyping() {
	if !s.joined {
		s.sendError(errs.NewError(errs.ErrJoinRequired))
		return
	}
	s.coord.setTyping(s, false)
}

// deliver queues one encoded frame for the transport writer. Frames for a
// deregistered session, or one whose queue is full, are dropped: delivery
// is fire-and-forget per connection.
func (s *Session) deliver(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- frame:
		return true
	case <-s.done:
		return false
	default:
		s.logger.Warn().Int("queue_len", len(s.send)).Msg("Session send queue full, dropping frame")
		return false
	}
}

// sendEvent encodes and privately delivers one event to this connection.
func (s *Session) sendEvent(eventType string, payload any) {
	frame, err := encodeEvent(eventType, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to encode event")
		return
	}
	s.deliver(frame)
}

// sendError privately delivers an error event to this connection.
func (s *Session) sendError(customErr *errs.CustomError) {
	s.sendEvent(EventError, ErrorPayload{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
