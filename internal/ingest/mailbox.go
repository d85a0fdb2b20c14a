package ingest

import "sync"

// Mailbox is an unbounded FIFO of raw audio chunks shared between the
// ingestor (single writer) and the processing loop (single reader).
type Mailbox struct {
	mu     sync.Mutex
	chunks [][]byte
	notify chan struct{}
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Push appends a chunk and wakes the reader. Wake-ups are coalesced.
func (m *Mailbox) Push(chunk []byte) {
	m.mu.Lock()
	m.chunks = append(m.chunks, chunk)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Drain removes and returns every pending chunk in arrival order.
func (m *Mailbox) Drain() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.chunks) == 0 {
		return nil
	}
	out := m.chunks
	m.chunks = nil
	return out
}

// Notify fires after at least one Push since the last receive.
func (m *Mailbox) Notify() <-chan struct{} {
	return m.notify
}

// Len reports the number of pending chunks.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}
