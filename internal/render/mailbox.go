package render

import "sync"

// Mailbox is an unbounded FIFO with any number of producers and one consumer.
// Push never blocks.
type Mailbox struct {
	mu    sync.Mutex
	q     []Command
	ready chan struct{}
}

func NewMailbox() *Mailbox {
	return &Mailbox{ready: make(chan struct{}, 1)}
}

func (m *Mailbox) Push(c Command) {
	m.mu.Lock()
	m.q = append(m.q, c)
	m.mu.Unlock()
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Drain takes everything queued so far, oldest first. It returns nil when empty.
func (m *Mailbox) Drain() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.q) == 0 {
		return nil
	}
	out := m.q
	m.q = nil
	return out
}

// Ready receives a value after one or more pushes since the last receive.
func (m *Mailbox) Ready() <-chan struct{} { return m.ready }

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.q)
}
