package presence

import "errors"

// ErrSlowClient is returned by Conn.Send when the client cannot keep up and
// the event must be dropped. Delivery is best-effort by design of the hub.
var ErrSlowClient = errors.New("client buffer full")

// Conn is the transport-agnostic server→client push surface. The SSE
// transport implements it over http.Flusher; tests use channel-backed fakes.
type Conn interface {
	// Send enqueues the event without blocking. Returns ErrSlowClient when
	// the client's buffer is full.
	Send(event Event) error
	// Close releases transport resources. Safe to call more than once.
	Close() error
}
