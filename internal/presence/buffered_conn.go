package presence

import "sync"

// BufferedConn is the channel-backed Conn used by the SSE transport: the hub
// enqueues without blocking and the HTTP writer drains Events until Done.
type BufferedConn struct {
	events chan Event
	closed chan struct{}
	once   sync.Once
}

// NewBufferedConn builds a connection with the given event buffer size.
func NewBufferedConn(buffer int) *BufferedConn {
	if buffer <= 0 {
		buffer = 16
	}
	return &BufferedConn{
		events: make(chan Event, buffer),
		closed: make(chan struct{}),
	}
}

// Send enqueues the event without blocking. Events sent to a closed
// connection are silently discarded; a full buffer returns ErrSlowClient.
func (c *BufferedConn) Send(event Event) error {
	select {
	case <-c.closed:
		return nil
	default:
	}
	select {
	case c.events <- event:
		return nil
	default:
		return ErrSlowClient
	}
}

// Close marks the connection closed and wakes the writer.
func (c *BufferedConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// Events is the transport's read side.
func (c *BufferedConn) Events() <-chan Event {
	return c.events
}

// Done is closed when the connection is closed.
func (c *BufferedConn) Done() <-chan struct{} {
	return c.closed
}
