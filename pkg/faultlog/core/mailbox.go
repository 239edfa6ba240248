package core

import (
	"context"
	"sync"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// Mailbox is the inbox of a single process. Messages are kept per
// tag in arrival order, so receiving from a specific source keeps
// the send order for that source and receiving from any source
// returns the oldest message on the tag.
type Mailbox struct {
	mutex sync.Mutex

	// Pending messages for each tag.
	queues map[types.Tag][]types.Message

	// Closed and replaced on every delivery, to wake up receivers.
	arrived chan struct{}

	closed bool
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		queues:  make(map[types.Tag][]types.Message),
		arrived: make(chan struct{}),
	}
}

// Deliver adds the message at the tail of its tag queue.
func (m *Mailbox) Deliver(message types.Message) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return types.ErrTransportClosed
	}

	m.queues[message.Tag] = append(m.queues[message.Tag], message)
	close(m.arrived)
	m.arrived = make(chan struct{})
	return nil
}

// Probe verify if a matching message is waiting.
func (m *Mailbox) Probe(source types.ProcessID, tag types.Tag) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.index(source, tag) >= 0
}

// Take removes the first matching message, blocking until it exists.
func (m *Mailbox) Take(ctx context.Context, source types.ProcessID, tag types.Tag) (types.Message, error) {
	for {
		m.mutex.Lock()
		if m.closed {
			m.mutex.Unlock()
			return types.Message{}, types.ErrTransportClosed
		}

		if i := m.index(source, tag); i >= 0 {
			queue := m.queues[tag]
			message := queue[i]
			m.queues[tag] = append(queue[:i:i], queue[i+1:]...)
			m.mutex.Unlock()
			return message, nil
		}
		wait := m.arrived
		m.mutex.Unlock()

		select {
		case <-ctx.Done():
			return types.Message{}, ctx.Err()
		case <-wait:
		}
	}
}

// Size is the amount of pending messages on the tag.
func (m *Mailbox) Size(tag types.Tag) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.queues[tag])
}

// Close the mailbox, pending messages are discarded and blocked
// receivers are released.
func (m *Mailbox) Close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.queues = nil
	close(m.arrived)
}

func (m *Mailbox) index(source types.ProcessID, tag types.Tag) int {
	for i, message := range m.queues[tag] {
		if source == types.AnySource || message.From == source {
			return i
		}
	}
	return -1
}
