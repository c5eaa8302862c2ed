// Package transport defines the channel between a board session and the other
// sessions of the same board, plus an in-memory Hub implementation.
//
// A transport must deliver every event at least once and keep the order in
// which any single origin published events for a given token. Nothing beyond
// that is assumed: events from different origins may interleave arbitrarily.
package transport

import (
	"context"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/event"
)

// Transport connects one session to a board.
type Transport interface {
	// Publish queues a local mutation for the other sessions. It never
	// blocks on delivery; events that cannot be queued are dropped.
	Publish(ev event.Event)

	// Events delivers mutations published by other sessions. The channel is
	// closed when the transport is closed or the connection is lost.
	Events() <-chan event.Event

	// Snapshot fetches the current board contents.
	Snapshot(ctx context.Context) ([]board.Token, error)

	// Close releases the connection.
	Close() error
}
