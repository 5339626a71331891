// Package session tracks connected battle clients and their outbound message
// buffers.
package session

import (
	"fmt"
	"sync"
)

// BridgeEntity is one client's bounded outbox. Producers push encoded frames;
// the transport's writer goroutine drains Events.
type BridgeEntity struct {
	uid     string
	events  chan []byte
	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewBridgeEntity creates a BridgeEntity for the given client id.
//
// Precondition: uid must be non-empty.
// Postcondition: Returns a BridgeEntity with an open events channel.
func NewBridgeEntity(uid string, bufferSize int) *BridgeEntity {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &BridgeEntity{
		uid:    uid,
		events: make(chan []byte, bufferSize),
	}
}

// UID returns the client's identity.
func (e *BridgeEntity) UID() string {
	return e.uid
}

// Push enqueues data without blocking.
//
// Precondition: data must be a non-nil byte slice.
// Postcondition: Data is enqueued, or an error is returned if the entity is closed or full.
func (e *BridgeEntity) Push(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("entity %s is closed", e.uid)
	}
	select {
	case e.events <- data:
		return nil
	default:
		e.dropped++
		return fmt.Errorf("entity %s event buffer full", e.uid)
	}
}

// Events returns the read-only events channel. It is closed by Close.
func (e *BridgeEntity) Events() <-chan []byte {
	return e.events
}

// Dropped returns how many pushes were rejected because the buffer was full.
func (e *BridgeEntity) Dropped() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

// Close marks the entity as closed and closes the events channel.
//
// Postcondition: The events channel is closed. Further Push calls return an error.
func (e *BridgeEntity) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}

// IsClosed reports whether the entity has been closed.
func (e *BridgeEntity) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
