/*
Package randx generates the identifiers the coordinator hands out.

Connection identities are opaque, process-local and never reused; message
ids become the primary key of the durable history row. Both are UUIDv4.
*/
package randx

import "github.com/google/uuid"

// ConnectionID returns a fresh opaque identifier for one open connection.
// A new id is minted per accept, so a reconnecting client never reuses one.
func ConnectionID() string {
	return uuid.NewString()
}

// MessageID returns the identifier for a newly constructed chat message.
func MessageID() string {
	return uuid.NewString()
}
