/*
Package chat contains the realtime core of the server.

This file defines the Coordinator, the single owner of the presence and
typing tables and of all broadcast fan-out. One run loop serializes every
table mutation with the broadcast that announces it, so all observers see
broadcasts in the same order and each presence list reflects the completed
insert or remove that triggered it.
*/
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pulsechat/internal/app/history"
	"pulsechat/internal/app/storage"
	"pulsechat/internal/pkg/logx"
)

const (
	// deliveryBuffer is the capacity of the broadcast submission queue.
	deliveryBuffer = 1024

	// typingBuffer is the capacity of the typing update queue.
	typingBuffer = 256

	// defaultHistoryLimit is used when no limit is configured.
	defaultHistoryLimit = 50
)

// Audience selects the recipients of a broadcast.
type Audience int

const (
	// AudienceAll delivers to every connection, the sender included.
	AudienceAll Audience = iota

	// AudienceOthers delivers to every connection except the sender.
	AudienceOthers
)

// delivery is one encoded frame awaiting fan-out.
type delivery struct {
	frame    []byte
	audience Audience
	sender   ConnID
}

// typingUpdate is a pending typing-table mutation.
type typingUpdate struct {
	session *Session
	active  bool
}

// Coordinator orchestrates the connection lifecycle: registration,
// deregistration, typing state, and broadcast delivery. The presence and
// typing tables are owned here exclusively; nothing else mutates them.
type Coordinator struct {
	// history is the durable message log collaborator.
	history history.Store

	// avatars resolves avatar references to loadable URLs; may be nil.
	avatars storage.AvatarResolver

	// historyLimit caps the history snapshot delivered on join.
	historyLimit int

	// presence maps connection identity to username for online users.
	presence *Table

	// typing maps connection identity to username for composing users.
	typing *Table

	// sessions holds every registered connection.
	sessions map[ConnID]*Session

	// register queues sessions entering the presence table.
	register chan *Session

	// unregister queues sessions leaving.
	unregister chan *Session

	// deliveries queues encoded frames for fan-out.
	deliveries chan delivery

	// typingCh queues typing-table mutations.
	typingCh chan typingUpdate

	// stop signals the run loop to terminate.
	stop chan struct{}

	// wg waits for the run loop during shutdown.
	wg sync.WaitGroup

	// logger carries coordinator context.
	logger zerolog.Logger
}

// NewCoordinator builds a coordinator and starts its run loop.
// A nil resolver disables avatar resolution; references pass through.
func NewCoordinator(store history.Store, avatars storage.AvatarResolver, historyLimit int) *Coordinator {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}

	co := &Coordinator{
		history:      store,
		avatars:      avatars,
		historyLimit: historyLimit,
		presence:     NewTable(),
		typing:       NewTable(),
		sessions:     make(map[ConnID]*Session),
		register:     make(chan *Session),
		unregister:   make(chan *Session),
		deliveries:   make(chan delivery, deliveryBuffer),
		typingCh:     make(chan typingUpdate, typingBuffer),
		stop:         make(chan struct{}),
		logger:       logx.Logger().With().Str("component", "Coordinator").Logger(),
	}

	co.wg.Add(1)
	go co.run()

	return co
}

// Register inserts the session into the presence table and broadcasts the
// updated user list to all connections, the new one included. It returns
// once the run loop has accepted the session, so no event from the
// connection can be processed before registration.
func (co *Coordinator) Register(s *Session) {
	select {
	case co.register <- s:
	case <-co.stop:
	}
}

// Deregister removes the session from both tables and broadcasts the
// updated user list. Deregistering an unknown session is a no-op, which
// keeps duplicate disconnect signals harmless.
func (co *Coordinator) Deregister(s *Session) {
	select {
	case co.unregister <- s:
	case <-co.stop:
	}
}

// OnlineUsernames returns a point-in-time copy of the presence list in
// registration order.
func (co *Coordinator) OnlineUsernames() []string {
	return co.presence.Snapshot()
}

// Shutdown stops the run loop and releases every registered session.
// Safe to call more than once.
func (co *Coordinator) Shutdown() {
	select {
	case <-co.stop:
	default:
		close(co.stop)
	}
	co.wg.Wait()
	co.logger.Info().Msg("Coordinator shutdown complete.")
}

// run is the coordinator's event loop. All table mutation and fan-out
// happens here, one item at a time.
func (co *Coordinator) run() {
	defer co.wg.Done()

	for {
		select {
		case s := <-co.register:
			co.sessions[s.id] = s
			co.presence.Put(s.id, s.usr.Username)
			co.logger.Info().
				Str("conn_id", string(s.id)).
				Str("username", s.usr.Username).
				Int("online", co.presence.Len()).
				Msg("Connection registered.")
			co.broadcastUserList()

		case s := <-co.unregister:
			if _, ok := co.sessions[s.id]; !ok {
				continue
			}
			delete(co.sessions, s.id)
			co.presence.Remove(s.id)
			co.typing.Remove(s.id)
			close(s.done)
			co.logger.Info().
				Str("conn_id", string(s.id)).
				Str("username", s.usr.Username).
				Int("online", co.presence.Len()).
				Msg("Connection deregistered.")
			co.broadcastUserList()

		case d := <-co.deliveries:
			co.fanOut(d)

		case t := <-co.typingCh:
			co.applyTyping(t)

		case <-co.stop:
			for _, s := range co.sessions {
				close(s.done)
			}
			co.sessions = make(map[ConnID]*Session)
			return
		}
	}
}

// broadcastEvent encodes the event once and submits it for fan-out.
// Frames are fanned out in submission order, so every observer sees the
// same broadcast order.
func (co *Coordinator) broadcastEvent(eventType string, payload any, audience Audience, sender ConnID) {
	frame, err := encodeEvent(eventType, payload)
	if err != nil {
		co.logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to encode broadcast")
		return
	}

	select {
	case co.deliveries <- delivery{frame: frame, audience: audience, sender: sender}:
	case <-co.stop:
	}
}

// setTyping submits a typing-table mutation to the run loop.
func (co *Coordinator) setTyping(s *Session, active bool) {
	select {
	case co.typingCh <- typingUpdate{session: s, active: active}:
	case <-co.stop:
	}
}

// applyTyping mutates the typing table and notifies all other connections.
// The update is skipped when the session was deregistered before the loop
// got to it.
func (co *Coordinator) applyTyping(t typingUpdate) {
	if _, ok := co.sessions[t.session.id]; !ok {
		return
	}

	eventType := EventUserStoppedTyping
	if t.active {
		co.typing.Put(t.session.id, t.session.usr.Username)
		eventType = EventUserTyping
	} else {
		co.typing.Remove(t.session.id)
	}

	frame, err := encodeEvent(eventType, TypingPayload{
		Username:  t.session.usr.Username,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		co.logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to encode typing event")
		return
	}

	co.fanOut(delivery{frame: frame, audience: AudienceOthers, sender: t.session.id})
}

// broadcastUserList fans out the current presence snapshot to everyone.
func (co *Coordinator) broadcastUserList() {
	frame, err := encodeEvent(EventUserList, co.presence.Snapshot())
	if err != nil {
		co.logger.Error().Err(err).Msg("Failed to encode user list")
		return
	}

	co.fanOut(delivery{frame: frame, audience: AudienceAll})
}

// fanOut delivers one frame to the selected audience. A recipient that is
// gone or saturated is skipped; one bad connection never blocks the rest
// or fails the originating operation.
func (co *Coordinator) fanOut(d delivery) {
	for id, s := range co.sessions {
		if d.audience == AudienceOthers && id == d.sender {
			continue
		}
		if !s.deliver(d.frame) {
			co.logger.Warn().Str("conn_id", string(id)).Msg("Dropped broadcast for unreachable connection.")
		}
	}
}

// resolveAvatar turns an avatar reference into a loadable URL. Without a
// resolver the reference passes through; a resolver failure falls back to
// the default avatar rather than failing the message.
func (co *Coordinator) resolveAvatar(ctx context.Context, ref string) string {
	if co.avatars == nil {
		return ref
	}

	resolved, err := co.avatars.ResolveAvatar(ctx, ref)
	if err != nil {
		co.logger.Warn().Err(err).Str("avatar_ref", ref).Msg("Avatar resolution failed, using default.")
		return ""
	}
	return resolved
}
