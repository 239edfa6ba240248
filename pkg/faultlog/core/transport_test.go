package core

import (
	"context"
	"reflect"
	"testing"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

func TestMemoryTransport_SendReceive(t *testing.T) {
	network := NewMemoryNetwork()
	controller := network.Transport(types.ControllerID)
	replica := network.Transport(1)
	defer controller.Close()
	defer replica.Close()

	message := types.NewControlMessage(1, types.Speed, int(types.Slow))
	message.From = 42
	if err := controller.Send(message); err != nil {
		t.Fatalf("failed sending. %v", err)
	}

	if !replica.Probe(types.ControllerID, types.ControlTag) {
		t.Fatalf("expected message from controller")
	}

	received, err := replica.Receive(context.TODO(), types.ControllerID, types.ControlTag)
	if err != nil {
		t.Fatalf("failed receiving. %v", err)
	}

	if received.From != types.ControllerID || received.Control.Args[0] != int(types.Slow) {
		t.Errorf("unexpected message %#v", received)
	}

	if err := controller.Send(types.NewControlMessage(7, types.Crash)); !types.Is(err, types.ErrInvalidProcess) {
		t.Errorf("expected invalid process, found %v", err)
	}
}

func TestMemoryTransport_CloseRemoves(t *testing.T) {
	network := NewMemoryNetwork()
	controller := network.Transport(types.ControllerID)
	defer controller.Close()
	replica := network.Transport(1)
	replica.Close()

	if err := controller.Send(types.NewControlMessage(1, types.Crash)); !types.Is(err, types.ErrInvalidProcess) {
		t.Errorf("expected invalid process, found %v", err)
	}

	if _, err := replica.Receive(context.TODO(), types.AnySource, types.ControlTag); err != types.ErrTransportClosed {
		t.Errorf("expected closed, found %v", err)
	}
}

func TestPoll_PriorityOrder(t *testing.T) {
	network := NewMemoryNetwork()
	replica := network.Transport(1)
	client := network.Transport(3)
	peer := network.Transport(2)
	defer replica.Close()
	defer client.Close()
	defer peer.Close()

	channels := []Channel{
		{Source: types.ControllerID, Tag: types.ControlTag},
		{Source: types.AnySource, Tag: types.CommandTag},
		{Source: types.AnySource, Tag: types.ReplicaTag},
	}

	if _, ok := Poll(replica, channels...); ok {
		t.Fatalf("nothing should be ready")
	}

	peer.Send(types.NewBeaconMessage(2, 1))
	client.Send(types.NewCommandMessage(3, 1, types.ParseRawCommand("SET x")))

	channel, ok := Poll(replica, channels...)
	if !ok || channel.Tag != types.CommandTag {
		t.Fatalf("expected command channel, found %#v", channel)
	}

	replica.Receive(context.TODO(), channel.Source, channel.Tag)
	channel, ok = Poll(replica, channels...)
	if !ok || channel.Tag != types.ReplicaTag {
		t.Fatalf("expected replica channel, found %#v", channel)
	}
}

func TestMessageCodec(t *testing.T) {
	messages := []types.Message{
		types.NewControlMessage(2, types.Speed, 1),
		types.NewCommandMessage(3, 1, types.ParseRawCommand("SET value")),
		types.NewRequestStateMessage(1, 2),
		types.NewStateMessage(2, 1, []string{"1\t3\tSET\tvalue"}),
		types.NewBeaconMessage(1, 2),
	}

	for _, message := range messages {
		data, err := encodeMessage(message)
		if err != nil {
			t.Fatalf("failed encoding %#v. %v", message, err)
		}

		decoded, err := decodeMessage(data)
		if err != nil {
			t.Fatalf("failed decoding %#v. %v", message, err)
		}

		if decoded.From != message.From || decoded.To != message.To || decoded.Kind != message.Kind || decoded.Tag != message.Tag {
			t.Errorf("header mismatch %#v and %#v", message, decoded)
		}

		if decoded.Token != message.Token || decoded.Control.Code != message.Control.Code {
			t.Errorf("payload mismatch %#v and %#v", message, decoded)
		}

		if len(message.Log) > 0 && !reflect.DeepEqual(message.Log, decoded.Log) {
			t.Errorf("expected log %v, found %v", message.Log, decoded.Log)
		}

		if len(message.Command.Fields) > 0 && !reflect.DeepEqual(message.Command.Fields, decoded.Command.Fields) {
			t.Errorf("expected command %v, found %v", message.Command, decoded.Command)
		}
	}
}
