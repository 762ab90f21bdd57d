package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pulsechat/internal/app/message"
	"pulsechat/internal/app/user"
	"pulsechat/internal/pkg/errs"
)

// fakeStore is an in-memory history store. Messages are kept in append
// order; FetchRecent returns them newest-first like the real store.
type fakeStore struct {
	mu         sync.Mutex
	messages   []message.Message
	failAppend bool
	failFetch  bool
}

func (f *fakeStore) AppendMessage(_ context.Context, msg message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAppend {
		return errors.New("store unavailable")
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeStore) FetchRecent(_ context.Context, limit int) ([]message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failFetch {
		return nil, errors.New("store unavailable")
	}

	out := make([]message.Message, 0, limit)
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.messages[i])
	}
	return out, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func newTestCoordinator(t *testing.T, store *fakeStore) *Coordinator {
	t.Helper()
	co := NewCoordinator(store, nil, 0)
	t.Cleanup(co.Shutdown)
	return co
}

func newJoinedSession(t *testing.T, co *Coordinator, username string) *Session {
	t.Helper()
	s := NewSession(co, user.User{ID: "uid-" + username, Username: username})
	co.Register(s)
	mustEvent(t, s, EventUserList)
	s.HandleJoin(context.Background())
	mustEvent(t, s, EventMessages)
	return s
}

// mustEvent waits for the next frame on the session's outbound queue and
// fails unless it carries the expected event type.
func mustEvent(t *testing.T, s *Session, wantType string) json.RawMessage {
	t.Helper()

	select {
	case frame := <-s.send:
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("invalid frame %q: %v", frame, err)
		}
		if env.Type != wantType {
			t.Fatalf("expected %q event, got %q (frame %s)", wantType, env.Type, frame)
		}
		return env.Payload
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q event", wantType)
	}
	return nil
}

// assertNoEvent fails if the session receives any frame within the window.
func assertNoEvent(t *testing.T, s *Session) {
	t.Helper()

	select {
	case frame := <-s.send:
		t.Fatalf("unexpected event: %s", frame)
	case <-time.After(100 * time.Millisecond):
	}
}

func decodeUserList(t *testing.T, payload json.RawMessage) []string {
	t.Helper()
	var usernames []string
	if err := json.Unmarshal(payload, &usernames); err != nil {
		t.Fatalf("invalid userList payload %s: %v", payload, err)
	}
	return usernames
}

func decodeMessage(t *testing.T, payload json.RawMessage) message.Message {
	t.Helper()
	var msg message.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("invalid message payload %s: %v", payload, err)
	}
	return msg
}

func decodeHistory(t *testing.T, payload json.RawMessage) []message.Message {
	t.Helper()
	var msgs []message.Message
	if err := json.Unmarshal(payload, &msgs); err != nil {
		t.Fatalf("invalid messages payload %s: %v", payload, err)
	}
	return msgs
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPresenceListFollowsConnectAndDisconnect(t *testing.T) {
	co := newTestCoordinator(t, &fakeStore{})

	alice := NewSession(co, user.User{ID: "1", Username: "alice"})
	co.Register(alice)

	if got := decodeUserList(t, mustEvent(t, alice, EventUserList)); !equalStrings(got, []string{"alice"}) {
		t.Fatalf("unexpected user list after first register: %v", got)
	}

	bob := NewSession(co, user.User{ID: "2", Username: "bob"})
	co.Register(bob)

	// Both connections observe the updated list, new connection included.
	if got := decodeUserList(t, mustEvent(t, alice, EventUserList)); !equalStrings(got, []string{"alice", "bob"}) {
		t.Fatalf("unexpected user list on alice: %v", got)
	}
	if got := decodeUserList(t, mustEvent(t, bob, EventUserList)); !equalStrings(got, []string{"alice", "bob"}) {
		t.Fatalf("unexpected user list on bob: %v", got)
	}

	co.Deregister(alice)

	if got := decodeUserList(t, mustEvent(t, bob, EventUserList)); !equalStrings(got, []string{"bob"}) {
		t.Fatalf("unexpected user list after disconnect: %v", got)
	}
	assertNoEvent(t, alice)

	// A duplicate disconnect signal is a no-op with no observable change.
	co.Deregister(alice)
	assertNoEvent(t, bob)
}

func TestDuplicateUsernamesKeepOneEntryPerConnection(t *testing.T) {
	co := newTestCoordinator(t, &fakeStore{})

	first := NewSession(co, user.User{ID: "1", Username: "alice"})
	co.Register(first)
	mustEvent(t, first, EventUserList)

	second := NewSession(co, user.User{ID: "1", Username: "alice"})
	co.Register(second)
	mustEvent(t, first, EventUserList)

	if got := decodeUserList(t, mustEvent(t, second, EventUserList)); !equalStrings(got, []string{"alice", "alice"}) {
		t.Fatalf("expected duplicate entries, got %v", got)
	}

	co.Deregister(first)

	if got := decodeUserList(t, mustEvent(t, second, EventUserList)); !equalStrings(got, []string{"alice"}) {
		t.Fatalf("expected one remaining entry, got %v", got)
	}
}

func TestSendMessageBroadcastToAllIncludingSender(t *testing.T) {
	store := &fakeStore{}
	co := newTestCoordinator(t, store)

	alice := newJoinedSession(t, co, "alice")
	bob := newJoinedSession(t, co, "bob")
	mustEvent(t, alice, EventUserList) // bob's registration

	alice.HandleSendMessage(context.Background(), SendMessagePayload{Text: "hello"})

	for _, s := range []*Session{alice, bob} {
		msg := decodeMessage(t, mustEvent(t, s, EventMessage))
		if msg.Text != "hello" || msg.Author != "alice" {
			t.Fatalf("unexpected broadcast message: %+v", msg)
		}
		if msg.Avatar != message.DefaultAvatar {
			t.Fatalf("expected default avatar, got %q", msg.Avatar)
		}
		if msg.CreatedAt.IsZero() {
			t.Fatalf("expected persist timestamp, got zero")
		}
	}

	if store.count() != 1 {
		t.Fatalf("expected 1 persisted message, got %d", store.count())
	}
}

func TestSendMessageAuthorIsServerAsserted(t *testing.T) {
	co := newTestCoordinator(t, &fakeStore{})

	alice := newJoinedSession(t, co, "alice")
	bob := newJoinedSession(t, co, "bob")
	mustEvent(t, alice, EventUserList)

	alice.HandleSendMessage(context.Background(), SendMessagePayload{
		Text: "hi",
		User: "mallory",
	})

	msg := decodeMessage(t, mustEvent(t, bob, EventMessage))
	if msg.Author != "alice" {
		t.Fatalf("author spoofing not rejected: %+v", msg)
	}
	mustEvent(t, alice, EventMessage)
}

func TestSendMessagePersistFailureIsPrivate(t *testing.T) {
	store := &fakeStore{failAppend: true}
	co := newTestCoordinator(t, store)

	alice := newJoinedSession(t, co, "alice")
	bob := newJoinedSession(t, co, "bob")
	mustEvent(t, alice, EventUserList)

	alice.HandleSendMessage(context.Background(), SendMessagePayload{Text: "hello"})

	var errPayload ErrorPayload
	if err := json.Unmarshal(mustEvent(t, alice, EventError), &errPayload); err != nil {
		t.Fatalf("invalid error payload: %v", err)
	}
	if errPayload.Code != errs.ErrMessageSendFailed {
		t.Fatalf("expected send-failed code, got %+v", errPayload)
	}

	assertNoEvent(t, alice)
	assertNoEvent(t, bob)
}

func TestSendMessageEmptyTextRejected(t *testing.T) {
	store := &fakeStore{}
	co := newTestCoordinator(t, store)

	alice := newJoinedSession(t, co, "alice")
	bob := newJoinedSession(t, co, "bob")
	mustEvent(t, alice, EventUserList)

	alice.HandleSendMessage(context.Background(), SendMessagePayload{Text: "   \n\t "})

	var errPayload ErrorPayload
	if err := json.Unmarshal(mustEvent(t, alice, EventError), &errPayload); err != nil {
		t.Fatalf("invalid error payload: %v", err)
	}
	if errPayload.Code != errs.ErrMessageEmpty {
		t.Fatalf("expected empty-message code, got %+v", errPayload)
	}

	if store.count() != 0 {
		t.Fatalf("empty message was persisted")
	}
	assertNoEvent(t, bob)
}

func TestSendMessageBeforeJoinRejected(t *testing.T) {
	co := newTestCoordinator(t, &fakeStore{})

	alice := NewSession(co, user.User{ID: "1", Username: "alice"})
	co.Register(alice)
	mustEvent(t, alice, EventUserList)

	alice.HandleSendMessage(context.Background(), SendMessagePayload{Text: "hello"})

	var errPayload ErrorPayload
	if err := json.Unmarshal(mustEvent(t, alice, EventError), &errPayload); err != nil {
		t.Fatalf("invalid error payload: %v", err)
	}
	if errPayload.Code != errs.ErrJoinRequired {
		t.Fatalf("expected join-required code, got %+v", errPayload)
	}
}

func TestJoinHistoryDepth(t *testing.T) {
	cases := []struct {
		stored    int
		wantCount int
		wantFirst string
		wantLast  string
	}{
		{stored: 0, wantCount: 0},
		{stored: 1, wantCount: 1, wantFirst: "msg-1", wantLast: "msg-1"},
		{stored: 51, wantCount: 50, wantFirst: "msg-2", wantLast: "msg-51"},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_stored", tc.stored), func(t *testing.T) {
			store := &fakeStore{}
			for i := 1; i <= tc.stored; i++ {
				msg, err := message.New(fmt.Sprintf("msg-%d", i), "alice", "")
				if err != nil {
					t.Fatalf("building message: %v", err)
				}
				if err := store.AppendMessage(context.Background(), msg); err != nil {
					t.Fatalf("seeding store: %v", err)
				}
			}

			co := newTestCoordinator(t, store)

			alice := NewSession(co, user.User{ID: "1", Username: "alice"})
			co.Register(alice)
			mustEvent(t, alice, EventUserList)

			alice.HandleJoin(context.Background())

			history := decodeHistory(t, mustEvent(t, alice, EventMessages))
			if len(history) != tc.wantCount {
				t.Fatalf("expected %d history entries, got %d", tc.wantCount, len(history))
			}
			if tc.wantCount == 0 {
				return
			}
			if history[0].Text != tc.wantFirst || history[len(history)-1].Text != tc.wantLast {
				t.Fatalf("history not chronological: first=%q last=%q", history[0].Text, history[len(history)-1].Text)
			}
		})
	}
}

func TestJoinHistoryFetchFailureReportedPrivately(t *testing.T) {
	store := &fakeStore{failFetch: true}
	co := newTestCoordinator(t, store)

	alice := NewSession(co, user.User{ID: "1", Username: "alice"})
	co.Register(alice)
	mustEvent(t, alice, EventUserList)

	bob := NewSession(co, user.User{ID: "2", Username: "bob"})
	co.Register(bob)
	mustEvent(t, alice, EventUserList)
	mustEvent(t, bob, EventUserList)

	alice.HandleJoin(context.Background())

	var errPayload ErrorPayload
	if err := json.Unmarshal(mustEvent(t, alice, EventError), &errPayload); err != nil {
		t.Fatalf("invalid error payload: %v", err)
	}
	if errPayload.Code != errs.ErrHistoryLoadFailed {
		t.Fatalf("expected history-load code, got %+v", errPayload)
	}
	assertNoEvent(t, bob)

	// The join still completed: live events are accepted afterwards.
	store.mu.Lock()
	store.failFetch = false
	store.mu.Unlock()
	alice.HandleSendMessage(context.Background(), SendMessagePayload{Text: "still here"})
	mustEvent(t, alice, EventMessage)
	mustEvent(t, bob, EventMessage)
}

func TestTypingVisibleToOthersOnly(t *testing.T) {
	co := newTestCoordinator(t, &fakeStore{})

	alice := newJoinedSession(t, co, "alice")
	bob := newJoinedSession(t, co, "bob")
	mustEvent(t, alice, EventUserList)

	alice.HandleTyping()
	alice.HandleStopTyping()

	var typing TypingPayload
	if err := json.Unmarshal(mustEvent(t, bob, EventUserTyping), &typing); err != nil {
		t.Fatalf("invalid typing payload: %v", err)
	}
	if typing.Username != "alice" || typing.Timestamp == 0 {
		t.Fatalf("unexpected typing payload: %+v", typing)
	}

	if err := json.Unmarshal(mustEvent(t, bob, EventUserStoppedTyping), &typing); err != nil {
		t.Fatalf("invalid stopped-typing payload: %v", err)
	}
	if typing.Username != "alice" {
		t.Fatalf("unexpected stopped-typing payload: %+v", typing)
	}

	// The sender never observes its own typing events.
	assertNoEvent(t, alice)
}

func TestDisconnectClearsTypingState(t *testing.T) {
	co := newTestCoordinator(t, &fakeStore{})

	alice := newJoinedSession(t, co, "alice")
	bob := newJoinedSession(t, co, "bob")
	mustEvent(t, alice, EventUserList)

	alice.HandleTyping()
	mustEvent(t, bob, EventUserTyping)

	co.Deregister(alice)
	mustEvent(t, bob, EventUserList)

	if co.typing.Len() != 0 {
		t.Fatalf("typing table not cleared on disconnect")
	}
}

func TestMessageFromDepartedSenderStillBroadcast(t *testing.T) {
	// A persistence started on behalf of a message is completed and handled
	// normally even when the sender disconnects before it finishes; the
	// private delivery to the gone sender is simply dropped.
	co := newTestCoordinator(t, &fakeStore{})

	alice := newJoinedSession(t, co, "alice")
	bob := newJoinedSession(t, co, "bob")
	mustEvent(t, alice, EventUserList)

	co.Deregister(alice)
	mustEvent(t, bob, EventUserList)

	alice.HandleSendMessage(context.Background(), SendMessagePayload{Text: "parting words"})

	msg := decodeMessage(t, mustEvent(t, bob, EventMessage))
	if msg.Text != "parting words" || msg.Author != "alice" {
		t.Fatalf("unexpected broadcast: %+v", msg)
	}
	assertNoEvent(t, alice)
}
