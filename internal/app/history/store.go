/*
Package history provides the durable append-only message log.

The coordinator appends each persisted message and reads the most recent N
entries when a connection joins. The store returns history newest-first;
chronological reordering is the caller's concern.
*/
package history

import (
	"context"

	"pulsechat/internal/app/message"
)

// Store is the interface the coordinator consumes.
type Store interface {
	// AppendMessage durably persists one message.
	AppendMessage(ctx context.Context, msg message.Message) error

	// FetchRecent returns up to limit messages ordered newest-first.
	FetchRecent(ctx context.Context, limit int) ([]message.Message, error)
}
