package message

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewTrimsText(t *testing.T) {
	msg, err := New("  hello \n", "alice", "https://cdn.example.com/a.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Text != "hello" {
		t.Fatalf("text not trimmed: %q", msg.Text)
	}
	if msg.Author != "alice" || msg.Avatar != "https://cdn.example.com/a.png" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.ID == "" || msg.CreatedAt.IsZero() {
		t.Fatalf("missing id or timestamp: %+v", msg)
	}
}

func TestNewRejectsEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := New(text, "alice", ""); !errors.Is(err, ErrEmptyText) {
			t.Fatalf("text %q: expected ErrEmptyText, got %v", text, err)
		}
	}
}

func TestNewDefaultsAvatar(t *testing.T) {
	msg, err := New("hello", "alice", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Avatar != DefaultAvatar {
		t.Fatalf("expected default avatar, got %q", msg.Avatar)
	}
}

func TestNewGeneratesUniqueIDs(t *testing.T) {
	a, _ := New("one", "alice", "")
	b, _ := New("two", "alice", "")
	if a.ID == b.ID {
		t.Fatalf("ids collide: %q", a.ID)
	}
}

func TestMessageWireFieldNames(t *testing.T) {
	msg, err := New("hello", "alice", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "text", "user", "avatar", "timestamp"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing wire field %q in %s", key, raw)
		}
	}
	if _, ok := fields["author"]; ok {
		t.Fatalf("author leaked under internal name: %s", raw)
	}
}
