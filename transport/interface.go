// Package transport provides the session-oriented byte-stream contract
// shared by both the client and server dispatchers. Unlike client/transport
// (which speaks the client-specific Streamable HTTP protocol), this package
// models a transport as a set of independent, bidirectional message
// sessions — the shape both stdio (one implicit session) and SSE (one
// session per accepted stream) need.
package transport

import (
	"context"

	"github.com/google/uuid"
)

// SessionID identifies one logical connection across a transport's
// lifetime. For stdio there is exactly one; for SSE, one per accepted
// stream.
type SessionID uuid.UUID

func newSessionID() SessionID {
	return SessionID(uuid.New())
}

func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

// Conn is one message-oriented duplex session. A dispatcher reads whole
// JSON-RPC payloads from Inbound and writes whole payloads via Send; framing
// (newline-delimited on stdio, SSE `data:` lines over HTTP) is the
// implementation's concern, not the dispatcher's.
type Conn interface {
	ID() SessionID

	// Inbound yields one decoded message payload per element. The stdio
	// implementation closes it at end of input; the SSE implementation never
	// closes it, so readers also watch Done.
	Inbound() <-chan []byte

	// Send writes one message payload to the peer.
	Send(ctx context.Context, payload []byte) error

	// Close tears down the session. Safe to call more than once.
	Close() error

	// Done is closed once the connection is no longer usable.
	Done() <-chan struct{}
}

// Listener accepts new sessions. Stdio implementations produce exactly one
// Conn and then block; SSE implementations produce one Conn per accepted
// `GET /sse` request.
type Listener interface {
	Accept(ctx context.Context) (Conn, error)
	Close() error
}
