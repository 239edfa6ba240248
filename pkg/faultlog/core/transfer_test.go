package core

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/jabolina/go-faultlog/pkg/faultlog/definition"
	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
	"go.uber.org/goleak"
)

func TestStateTransfer_SkipPeersWithoutSignal(t *testing.T) {
	network := NewMemoryNetwork()
	replica := network.Transport(1)
	peer := network.Transport(2)
	defer replica.Close()
	defer peer.Close()

	transfer := newStateTransfer(replica, []types.ProcessID{1, 2}, 0, 0, definition.NewDefaultLogger())
	if log := transfer.request(context.TODO(), func() []string { return nil }); log != nil {
		t.Fatalf("expected no log, found %v", log)
	}

	if peer.Probe(types.AnySource, types.ReplicaTag) {
		t.Errorf("no request should be sent without a liveness signal")
	}
}

func TestStateTransfer_FirstNonEmptyWins(t *testing.T) {
	network := NewMemoryNetwork()
	replica := network.Transport(1)
	empty := network.Transport(2)
	full := network.Transport(3)
	other := network.Transport(4)
	defer replica.Close()
	defer empty.Close()
	defer full.Close()
	defer other.Close()

	expected := []string{"a", "b"}
	empty.Send(types.NewBeaconMessage(2, 1))
	empty.Send(types.NewStateMessage(2, 1, nil))
	full.Send(types.NewBeaconMessage(3, 1))
	full.Send(types.NewStateMessage(3, 1, expected))
	other.Send(types.NewBeaconMessage(4, 1))
	other.Send(types.NewStateMessage(4, 1, []string{"c"}))

	transfer := newStateTransfer(replica, []types.ProcessID{2, 3, 4}, time.Second, time.Second, definition.NewDefaultLogger())
	log := transfer.request(context.TODO(), func() []string { return nil })
	if !reflect.DeepEqual(log, expected) {
		t.Fatalf("expected %v, found %v", expected, log)
	}

	for _, peer := range []Transport{empty, full} {
		if !peer.Probe(1, types.ReplicaTag) {
			t.Errorf("expected request at %d", peer.LocalID())
		}
	}

	if other.Probe(1, types.ReplicaTag) {
		t.Errorf("peer 4 should not be requested")
	}
}

func TestStateTransfer_TimeoutCountsAsEmpty(t *testing.T) {
	defer goleak.VerifyNone(t)

	network := NewMemoryNetwork()
	replica := network.Transport(1)
	peer := network.Transport(2)
	defer replica.Close()
	defer peer.Close()

	peer.Send(types.NewBeaconMessage(2, 1))
	transfer := newStateTransfer(replica, []types.ProcessID{2}, 20*time.Millisecond, time.Second, definition.NewDefaultLogger())

	start := time.Now()
	if log := transfer.request(context.TODO(), func() []string { return nil }); log != nil {
		t.Fatalf("expected no log, found %v", log)
	}

	if time.Since(start) > time.Second {
		t.Errorf("request took too long")
	}
}

func TestStateTransfer_AnswerPeerWhileWaiting(t *testing.T) {
	network := NewMemoryNetwork()
	replica := network.Transport(1)
	peer := network.Transport(2)
	defer replica.Close()
	defer peer.Close()

	peer.Send(types.NewBeaconMessage(2, 1))
	peer.Send(types.NewRequestStateMessage(2, 1))
	peer.Send(types.NewStateMessage(2, 1, []string{"theirs"}))

	transfer := newStateTransfer(replica, []types.ProcessID{2}, time.Second, time.Second, definition.NewDefaultLogger())
	log := transfer.request(context.TODO(), func() []string { return []string{"mine"} })
	if !reflect.DeepEqual(log, []string{"theirs"}) {
		t.Fatalf("expected peer log, found %v", log)
	}

	request, err := peer.Receive(context.TODO(), 1, types.ReplicaTag)
	if err != nil || !request.IsRequestState() {
		t.Fatalf("expected request, found %#v. %v", request, err)
	}

	answer, err := peer.Receive(context.TODO(), 1, types.ReplicaTag)
	if err != nil || answer.Kind != types.StatePayload || !reflect.DeepEqual(answer.Log, []string{"mine"}) {
		t.Fatalf("expected answer with current log, found %#v. %v", answer, err)
	}
}

func TestStateTransfer_WaitFreshSignal(t *testing.T) {
	defer goleak.VerifyNone(t)

	network := NewMemoryNetwork()
	replica := network.Transport(1)
	peer := network.Transport(2)
	defer replica.Close()
	defer peer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(20 * time.Millisecond)
		peer.Send(types.NewBeaconMessage(2, 1))
		request, err := peer.Receive(context.TODO(), 1, types.ReplicaTag)
		if err != nil || !request.IsRequestState() {
			t.Errorf("expected request, found %#v. %v", request, err)
			return
		}
		peer.Send(types.NewStateMessage(2, 1, []string{"theirs"}))
	}()

	transfer := newStateTransfer(replica, []types.ProcessID{2}, time.Second, time.Second, definition.NewDefaultLogger())
	log := transfer.request(context.TODO(), func() []string { return nil })
	<-done
	if !reflect.DeepEqual(log, []string{"theirs"}) {
		t.Fatalf("expected peer log, found %v", log)
	}
}

func TestStateTransfer_SkipSilentPeerAfterWindow(t *testing.T) {
	network := NewMemoryNetwork()
	replica := network.Transport(1)
	peer := network.Transport(2)
	defer replica.Close()
	defer peer.Close()

	transfer := newStateTransfer(replica, []types.ProcessID{2}, 5*time.Second, 20*time.Millisecond, definition.NewDefaultLogger())
	start := time.Now()
	if log := transfer.request(context.TODO(), func() []string { return nil }); log != nil {
		t.Fatalf("expected no log, found %v", log)
	}

	if time.Since(start) > time.Second {
		t.Errorf("silent peer should be skipped after the window")
	}

	if peer.Probe(types.AnySource, types.ReplicaTag) {
		t.Errorf("silent peer should not be requested")
	}
}

func TestStateTransfer_DrainStaleMessages(t *testing.T) {
	network := NewMemoryNetwork()
	replica := network.Transport(1)
	stale := network.Transport(2)
	recovering := network.Transport(3)
	defer replica.Close()
	defer stale.Close()
	defer recovering.Close()

	for i := 0; i < 5; i++ {
		stale.Send(types.NewBeaconMessage(2, 1))
	}
	recovering.Send(types.NewRequestStateMessage(3, 1))

	transfer := newStateTransfer(replica, []types.ProcessID{2, 3}, time.Second, time.Second, definition.NewDefaultLogger())
	transfer.drain(func() []string { return []string{"mine"} })

	if replica.Probe(types.AnySource, types.ReplicaTag) {
		t.Fatalf("replica channel should be empty")
	}

	answer, err := recovering.Receive(context.TODO(), 1, types.ReplicaTag)
	if err != nil || answer.Kind != types.StatePayload || !reflect.DeepEqual(answer.Log, []string{"mine"}) {
		t.Errorf("queued request should be answered, found %#v. %v", answer, err)
	}
}
