package core

import (
	"context"
	"sync"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// MemoryNetwork connects processes living on the same address
// space. Each process has a Mailbox and sending a message is
// delivering it directly into the destination mailbox.
type MemoryNetwork struct {
	mutex sync.RWMutex

	boxes map[types.ProcessID]*Mailbox
}

func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{
		boxes: make(map[types.ProcessID]*Mailbox),
	}
}

// Transport creates the transport for the given process. Calling
// this twice for the same process replaces the previous mailbox.
func (n *MemoryNetwork) Transport(id types.ProcessID) Transport {
	box := NewMailbox()
	n.mutex.Lock()
	n.boxes[id] = box
	n.mutex.Unlock()
	return &MemoryTransport{
		id:      id,
		network: n,
		box:     box,
	}
}

func (n *MemoryNetwork) deliver(message types.Message) error {
	n.mutex.RLock()
	box, ok := n.boxes[message.To]
	n.mutex.RUnlock()
	if !ok {
		return types.NewError(types.ErrInvalidProcess, "no process %d on the network", message.To)
	}
	return box.Deliver(message)
}

func (n *MemoryNetwork) remove(id types.ProcessID, box *Mailbox) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	if n.boxes[id] == box {
		delete(n.boxes, id)
	}
}

// MemoryTransport implements the Transport interface over a MemoryNetwork.
type MemoryTransport struct {
	id types.ProcessID

	network *MemoryNetwork

	box *Mailbox
}

// MemoryTransport implements Transport interface.
func (m *MemoryTransport) Probe(source types.ProcessID, tag types.Tag) bool {
	return m.box.Probe(source, tag)
}

// MemoryTransport implements Transport interface.
func (m *MemoryTransport) Receive(ctx context.Context, source types.ProcessID, tag types.Tag) (types.Message, error) {
	return m.box.Take(ctx, source, tag)
}

// MemoryTransport implements Transport interface.
// The sender is always the local process.
func (m *MemoryTransport) Send(message types.Message) error {
	message.From = m.id
	return m.network.deliver(message)
}

// MemoryTransport implements Transport interface.
func (m *MemoryTransport) LocalID() types.ProcessID {
	return m.id
}

// MemoryTransport implements Transport interface.
func (m *MemoryTransport) Close() error {
	m.network.remove(m.id, m.box)
	m.box.Close()
	return nil
}
