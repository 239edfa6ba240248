package core

import (
	"context"
	"time"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// The state transfer protocol, used by a recovering replica to
// fetch the log of a peer.
//
// This is not a consensus read, the first non-empty answer of a
// reachable peer is accepted.
type stateTransfer struct {
	transport Transport

	// Candidates, in the order they are requested.
	peers []types.ProcessID

	// How long to wait for each answer, no limit when zero.
	timeout time.Duration

	// How long to wait for the liveness signal of each peer.
	window time.Duration

	log types.Logger
}

func newStateTransfer(transport Transport, peers []types.ProcessID, timeout, window time.Duration, log types.Logger) *stateTransfer {
	return &stateTransfer{
		transport: transport,
		peers:     peers,
		timeout:   timeout,
		window:    window,
		log:       log,
	}
}

// Request the state of the peers, one at a time, stopping at the first
// one that answers with a non-empty log. A peer is only requested if its
// liveness signal arrives on the replica channel inside the window.
//
// While waiting, requests from the same peer are answered using the
// current function, so two replicas recovering at the same time do not
// wait on each other.
//
// Returns nil if no peer answered with a non-empty log.
func (s *stateTransfer) request(ctx context.Context, current func() []string) []string {
	self := s.transport.LocalID()
	for _, peer := range s.peers {
		if peer == self {
			continue
		}

		if !s.alive(ctx, peer, current) {
			s.log.Debugf("no liveness signal from %d", peer)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		if err := s.transport.Send(types.NewRequestStateMessage(self, peer)); err != nil {
			s.log.Warnf("failed requesting state from %d. %v", peer, err)
			continue
		}

		log, err := s.await(ctx, peer, current)
		if err != nil {
			s.log.Warnf("no state received from %d. %v", peer, err)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		if len(log) > 0 {
			s.log.Infof("received %d entries from %d", len(log), peer)
			return log
		}
		s.log.Debugf("peer %d answered with an empty log", peer)
	}
	return nil
}

func (s *stateTransfer) await(parent context.Context, peer types.ProcessID, current func() []string) ([]string, error) {
	ctx := parent
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.timeout)
		defer cancel()
	}

	for {
		message, err := s.transport.Receive(ctx, peer, types.ReplicaTag)
		if err != nil {
			return nil, err
		}

		switch {
		case message.Kind == types.StatePayload:
			return message.Log, nil
		case message.IsRequestState():
			s.respond(message.From, current())
		}
	}
}

// Drain discards everything queued on the replica channel, so only
// the liveness signals sent after this point are considered. The
// queued state requests are answered with the current log.
func (s *stateTransfer) drain(current func() []string) {
	for s.transport.Probe(types.AnySource, types.ReplicaTag) {
		message, err := s.transport.Receive(context.Background(), types.AnySource, types.ReplicaTag)
		if err != nil {
			return
		}

		if message.IsRequestState() {
			s.respond(message.From, current())
		}
	}
}

// Wait for the liveness signal of the peer. A state request from the
// peer is answered and also counts as a signal. Without a window only
// a signal already waiting is accepted.
func (s *stateTransfer) alive(parent context.Context, peer types.ProcessID, current func() []string) bool {
	if s.window <= 0 {
		return s.transport.Probe(peer, types.ReplicaTag)
	}

	ctx, cancel := context.WithTimeout(parent, s.window)
	defer cancel()
	for {
		message, err := s.transport.Receive(ctx, peer, types.ReplicaTag)
		if err != nil {
			return false
		}

		switch {
		case message.Kind == types.BeaconPayload:
			return true
		case message.IsRequestState():
			s.respond(message.From, current())
			return true
		}
	}
}

// Respond to a state request with a copy of the log.
func (s *stateTransfer) respond(to types.ProcessID, log []string) {
	if err := s.transport.Send(types.NewStateMessage(s.transport.LocalID(), to, log)); err != nil {
		s.log.Warnf("failed sending state to %d. %v", to, err)
	}
}
