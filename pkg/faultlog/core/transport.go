package core

import (
	"context"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// Transport is the message passing substrate used by every role.
// All primitives are addressed by a (source, tag) pair, and
// types.AnySource matches any sender on the tag. Messages between
// the same source and destination on the same tag are received in
// the order they were sent, nothing else is ordered.
type Transport interface {
	// Probe verify if a message from the source is waiting on the
	// tag. This never blocks and does not consume the message.
	Probe(source types.ProcessID, tag types.Tag) bool

	// Receive consumes the next message from the source on the tag,
	// blocking until one is available or the context is done.
	Receive(ctx context.Context, source types.ProcessID, tag types.Tag) (types.Message, error)

	// Send the message to message.To. From the caller perspective
	// this is fire and forget, it does not wait for the receiver.
	Send(message types.Message) error

	// Local process identifier.
	LocalID() types.ProcessID

	// Closes the transport.
	Close() error
}

// Channel is one of the (source, tag) pairs a loop polls.
type Channel struct {
	Source types.ProcessID
	Tag    types.Tag
}

// Poll verify the channels in the given priority and returns the
// first one with a message waiting. This never blocks.
func Poll(transport Transport, channels ...Channel) (Channel, bool) {
	for _, channel := range channels {
		if transport.Probe(channel.Source, channel.Tag) {
			return channel, true
		}
	}
	return Channel{}, false
}
