package core

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-msgpack/codec"
	"github.com/jabolina/go-faultlog/pkg/faultlog/helper"
	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
	"github.com/jabolina/relt/pkg/relt"
)

// ReltConfiguration holds the information to connect a process
// to the broker.
type ReltConfiguration struct {
	// The local process.
	ID types.ProcessID

	// Prefix shared by every process of the same simulation, so
	// multiple simulations can use the same broker.
	Prefix string

	// AMQP url of the broker, the relt default is used when empty.
	Url string

	Logger types.Logger
}

// ReltTransport is an instance of the Transport interface where
// the messages are exchanged through a RabbitMQ broker using relt.
// Every process consumes from its own exchange, sending a message
// is publishing it on the destination exchange. The received
// messages are kept on a local Mailbox so probing never blocks.
type ReltTransport struct {
	id types.ProcessID

	prefix string

	// Reliable transport.
	relt *relt.Relt

	box *Mailbox

	log types.Logger

	// The transport context.
	context context.Context

	// The finish function to closing the transport.
	finish context.CancelFunc

	group *sync.WaitGroup

	closed helper.Latch
}

// NewReltTransport connects the process to the broker and start
// polling for received messages.
func NewReltTransport(parent context.Context, configuration ReltConfiguration) (Transport, error) {
	if configuration.Logger == nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "relt transport requires a logger")
	}

	conf := relt.DefaultReltConfiguration()
	conf.Name = exchangeName(configuration.Prefix, configuration.ID)
	conf.Exchange = relt.GroupAddress(conf.Name)
	if len(configuration.Url) > 0 {
		conf.Url = configuration.Url
	}

	r, err := relt.NewRelt(*conf)
	if err != nil {
		return nil, err
	}

	ctx, done := context.WithCancel(parent)
	t := &ReltTransport{
		id:      configuration.ID,
		prefix:  configuration.Prefix,
		relt:    r,
		box:     NewMailbox(),
		log:     configuration.Logger,
		context: ctx,
		finish:  done,
		group:   &sync.WaitGroup{},
	}
	t.group.Add(1)
	go t.poll()
	return t, nil
}

func exchangeName(prefix string, id types.ProcessID) string {
	return fmt.Sprintf("%s-%d", prefix, id)
}

// ReltTransport implements Transport interface.
func (r *ReltTransport) Probe(source types.ProcessID, tag types.Tag) bool {
	return r.box.Probe(source, tag)
}

// ReltTransport implements Transport interface.
func (r *ReltTransport) Receive(ctx context.Context, source types.ProcessID, tag types.Tag) (types.Message, error) {
	return r.box.Take(ctx, source, tag)
}

// ReltTransport implements Transport interface.
func (r *ReltTransport) Send(message types.Message) error {
	if r.closed.IsSet() {
		return types.ErrTransportClosed
	}

	message.From = r.id
	data, err := encodeMessage(message)
	if err != nil {
		r.log.Errorf("failed marshalling message %#v. %v", message, err)
		return err
	}

	return r.relt.Broadcast(relt.Send{
		Address: relt.GroupAddress(exchangeName(r.prefix, message.To)),
		Data:    data,
	})
}

// ReltTransport implements Transport interface.
func (r *ReltTransport) LocalID() types.ProcessID {
	return r.id
}

// ReltTransport implements Transport interface.
func (r *ReltTransport) Close() error {
	if !r.closed.Set() {
		return nil
	}
	r.finish()
	r.group.Wait()
	r.relt.Close()
	r.box.Close()
	return nil
}

// This method will keep polling until the transport context is
// cancelled. Every received message is decoded and delivered into
// the local mailbox.
func (r *ReltTransport) poll() {
	defer r.group.Done()
	listener := r.relt.Consume()
	for {
		select {
		case <-r.context.Done():
			return
		case recv, ok := <-listener:
			if !ok {
				return
			}
			r.consume(recv.Data, recv.Error)
		}
	}
}

func (r *ReltTransport) consume(data []byte, err error) {
	if err != nil {
		r.log.Errorf("failed consuming message at %d. %v", r.id, err)
		return
	}

	if len(data) == 0 {
		r.log.Warnf("received empty message at %d", r.id)
		return
	}

	message, err := decodeMessage(data)
	if err != nil {
		r.log.Errorf("failed unmarshalling message %#v. %v", data, err)
		return
	}

	if err := r.box.Deliver(message); err != nil {
		r.log.Warnf("%d dropping message after close. %v", r.id, err)
	}
}

func encodeMessage(message types.Message) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := codec.NewEncoder(buf, &codec.MsgpackHandle{}).Encode(&message)
	return buf.Bytes(), err
}

func decodeMessage(data []byte) (types.Message, error) {
	var message types.Message
	err := codec.NewDecoder(bytes.NewReader(data), &codec.MsgpackHandle{}).Decode(&message)
	return message, err
}
