/*
Package chat contains the realtime core: the session coordinator, the
presence and typing tables, per-connection sessions, and the WebSocket
transport glue.

This file defines Table, the keyed connection-to-username store backing
both the presence table and the typing table.
*/
package chat

import "sync"

// ConnID is the opaque, process-local identity of one open connection.
// It is minted on accept and never reused after disconnect.
type ConnID string

// Table maps connection identities to usernames while preserving insertion
// order. The presence list broadcast to clients is ordered by registration,
// so a plain map is not enough.
type Table struct {
	// mu protects entries and order.
	mu sync.RWMutex

	// entries holds at most one username per connection identity.
	entries map[ConnID]string

	// order records first-insertion order of the keys.
	order []ConnID
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{
		entries: make(map[ConnID]string),
	}
}

// Put inserts or updates the entry for id. An existing id keeps its
// original position in the order.
func (t *Table) Put(id ConnID, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[id]; !ok {
		t.order = append(t.order, id)
	}
	t.entries[id] = username
}

// Remove deletes the entry for id. Removing an absent id is a no-op, which
// keeps duplicate disconnect signals harmless.
func (t *Table) Remove(id ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[id]; !ok {
		return
	}
	delete(t.entries, id)

	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Snapshot returns a point-in-time copy of the usernames in insertion
// order. The copy is safe to hand to a broadcast; later mutations do not
// affect it. Duplicate usernames are preserved (one entry per connection).
func (t *Table) Snapshot() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	usernames := make([]string, 0, len(t.order))
	for _, id := range t.order {
		usernames = append(usernames, t.entries[id])
	}
	return usernames
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}
