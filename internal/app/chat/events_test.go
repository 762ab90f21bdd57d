package chat

import (
	"encoding/json"
	"testing"
)

func TestEncodeEventEnvelopeShape(t *testing.T) {
	frame, err := encodeEvent(EventUserList, []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(frame, &raw); err != nil {
		t.Fatalf("frame is not a JSON object: %v", err)
	}

	var eventType string
	if err := json.Unmarshal(raw["type"], &eventType); err != nil || eventType != EventUserList {
		t.Fatalf("unexpected type field: %s", raw["type"])
	}

	var usernames []string
	if err := json.Unmarshal(raw["payload"], &usernames); err != nil {
		t.Fatalf("unexpected payload field: %s", raw["payload"])
	}
	if !equalStrings(usernames, []string{"alice", "bob"}) {
		t.Fatalf("payload round-trip mismatch: %v", usernames)
	}
}

func TestSendMessagePayloadAcceptsLegacyFields(t *testing.T) {
	// Older clients send user and avatar alongside text; the fields must
	// decode without error even though the author is never taken from them.
	var payload SendMessagePayload
	raw := []byte(`{"text":"hi","user":"alice","avatar":"avatars/a.png"}`)
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Text != "hi" || payload.User != "alice" || payload.Avatar != "avatars/a.png" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestEncodeEventUnsupportedPayload(t *testing.T) {
	if _, err := encodeEvent(EventMessage, make(chan int)); err == nil {
		t.Fatal("expected marshal error for unsupported payload type")
	}
}
