package core

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/jabolina/go-faultlog/pkg/faultlog/helper"
	"github.com/jabolina/go-faultlog/pkg/faultlog/output"
	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// DefaultBeaconInterval is used when the configuration does not
// define one, the cache would never expire the sent beacons otherwise.
const DefaultBeaconInterval = 100 * time.Millisecond

// ReplicaState is the lifecycle state of a replica.
type ReplicaState int32

const (
	Running ReplicaState = iota
	Crashed
)

func (s ReplicaState) String() string {
	if s == Crashed {
		return "CRASHED"
	}
	return "RUNNING"
}

// The control state of a replica. Owned by the replica loop and
// changed only by controller messages.
type replicaControl struct {
	crashed bool

	speed types.SpeedMode
}

// Replica is a server process, it holds a local log that grows with
// the commands received from the clients.
type Replica struct {
	id types.ProcessID

	configuration types.ReplicaConfiguration

	transport Transport

	// The replica log, only the replica loop changes it.
	log output.Log

	transfer *stateTransfer

	beacons *beacons

	logger types.Logger

	// The initial control state, the loop takes ownership of it.
	initial replicaControl

	// Published copy of the control state, for inspection only.
	state int32
	speed int32

	closed helper.Latch
}

// NewReplica creates the replica for the given configuration. The
// replica does nothing until Run is called.
func NewReplica(configuration types.ReplicaConfiguration, transport Transport) (*Replica, error) {
	if configuration.Topology.RoleOf(configuration.ID) != types.ReplicaRole {
		return nil, types.NewError(types.ErrInvalidProcess, "process %d is not a replica", configuration.ID)
	}

	if configuration.Sink == nil || configuration.Merger == nil || configuration.Logger == nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "replica %d requires sink, merger and logger", configuration.ID)
	}

	if !configuration.Speed.Valid() {
		return nil, types.NewError(types.ErrInvalidConfiguration, "unknown speed %s", configuration.Speed)
	}

	if configuration.Delays == nil {
		configuration.Delays = types.DefaultDelays()
	}

	if configuration.BeaconInterval <= 0 {
		configuration.BeaconInterval = DefaultBeaconInterval
	}

	peers := configuration.Topology.Peers(configuration.ID)
	r := &Replica{
		id:            configuration.ID,
		configuration: configuration,
		transport:     transport,
		log:           output.NewLogStructure(configuration.Sink),
		transfer:      newStateTransfer(transport, peers, configuration.TransferTimeout, livenessWindow(configuration), configuration.Logger),
		beacons:       newBeacons(transport, peers, configuration.BeaconInterval, configuration.Logger),
		logger:        configuration.Logger,
		initial:       replicaControl{speed: configuration.Speed},
	}
	r.publish(r.initial)
	return r, nil
}

// Run the replica loop until the context is done.
func (r *Replica) Run(ctx context.Context) {
	defer r.logger.Debugf("closing replica %d", r.id)
	state := r.initial
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var handled bool
		state, handled = r.step(ctx, state)
		r.publish(state)
		if !handled {
			idle(ctx, r.configuration.PollInterval)
		}
	}
}

// A single scheduling step. At most one message is handled and the
// returned flag tells if something was done.
func (r *Replica) step(ctx context.Context, state replicaControl) (replicaControl, bool) {
	if state.crashed {
		return r.crashedStep(ctx, state)
	}

	r.beacons.emit()
	channel, ok := Poll(r.transport,
		Channel{Source: types.ControllerID, Tag: types.ControlTag},
		Channel{Source: types.AnySource, Tag: types.CommandTag},
		Channel{Source: types.AnySource, Tag: types.ReplicaTag})
	if !ok {
		return state, false
	}

	message, err := r.transport.Receive(ctx, channel.Source, channel.Tag)
	if err != nil {
		r.logger.Warnf("replica %d failed receiving on %s. %v", r.id, channel.Tag, err)
		return state, false
	}

	switch channel.Tag {
	case types.ControlTag:
		return r.control(state, message.Control), true
	case types.CommandTag:
		r.accept(message)
		pause(ctx, r.configuration.Delays[state.speed])
	case types.ReplicaTag:
		r.serve(message)
	}
	return state, true
}

// While crashed only the recovery is handled. The client commands
// are consumed and dropped, since a crashed replica is unavailable.
func (r *Replica) crashedStep(ctx context.Context, state replicaControl) (replicaControl, bool) {
	channel, ok := Poll(r.transport,
		Channel{Source: types.ControllerID, Tag: types.ControlTag},
		Channel{Source: types.AnySource, Tag: types.CommandTag})
	if !ok {
		return state, false
	}

	message, err := r.transport.Receive(ctx, channel.Source, channel.Tag)
	if err != nil {
		r.logger.Warnf("replica %d failed receiving on %s. %v", r.id, channel.Tag, err)
		return state, false
	}

	if channel.Tag == types.CommandTag {
		r.logger.Debugf("replica %d crashed, dropping command %s from %d", r.id, message.Command, message.From)
		return state, true
	}

	if message.Control.Code != types.Recovery {
		r.logger.Debugf("replica %d crashed, ignoring %s", r.id, message.Control.Code)
		return state, true
	}

	state.crashed = false
	r.recover(ctx)
	return state, true
}

func (r *Replica) control(state replicaControl, control types.Control) replicaControl {
	switch control.Code {
	case types.Crash:
		r.logger.Infof("replica %d crashed with %d entries", r.id, r.log.Size())
		state.crashed = true
		r.log.Clear()
	case types.Speed:
		if len(control.Args) == 0 || !types.SpeedMode(control.Args[0]).Valid() {
			r.logger.Warnf("replica %d ignoring speed with args %v", r.id, control.Args)
			return state
		}
		state.speed = types.SpeedMode(control.Args[0])
		r.logger.Infof("replica %d speed changed to %s", r.id, state.speed)
	default:
		r.logger.Debugf("replica %d running, ignoring %s", r.id, control.Code)
	}
	return state
}

// Validate and append the client command. A malformed command is
// dropped without being logged.
func (r *Replica) accept(message types.Message) {
	command, err := types.Validate(message.Command, message.From, time.Now())
	if err != nil {
		r.logger.Debugf("replica %d dropping command from %d. %v", r.id, message.From, err)
		return
	}

	if err := r.log.Append(command); err != nil {
		r.logger.Errorf("replica %d failed appending %s. %v", r.id, command.Line(), err)
	}
}

// Serve the replica channel, answering state requests. Beacons and
// late state answers are only consumed.
func (r *Replica) serve(message types.Message) {
	switch {
	case message.IsRequestState():
		r.transfer.respond(message.From, r.log.Dump())
	case message.Kind == types.StatePayload:
		r.logger.Debugf("replica %d dropping late state from %d", r.id, message.From)
	case message.Kind == types.BeaconPayload:
	default:
		r.logger.Warnf("replica %d unknown replica message %#v", r.id, message)
	}
}

// Recover the log from a peer. The log is cleared and replaced by
// the merge of the peer answer, if any, so an unreachable cluster
// leaves the replica with an empty log.
func (r *Replica) recover(ctx context.Context) {
	r.log.Clear()
	r.transfer.drain(r.log.Dump)

	var sources [][]string
	var salvaged []string
	if r.configuration.Salvage {
		var err error
		if salvaged, err = r.log.Durable(); err != nil {
			r.logger.Warnf("replica %d failed salvaging durable log. %v", r.id, err)
		}
		sources = append(sources, salvaged)
	}

	if state := r.transfer.request(ctx, r.log.Dump); len(state) > 0 {
		sources = append(sources, state)
	}

	merged := r.configuration.Merger.Merge(sources...)
	if err := r.log.Resume(merged, salvaged); err != nil {
		r.logger.Errorf("replica %d failed resuming log. %v", r.id, err)
	}
	r.beacons.reset()
	r.logger.Infof("replica %d recovered with %d entries", r.id, r.log.Size())
}

// How long a recovering replica waits for a fresh liveness signal of
// a peer. A running peer emits one each interval, but a slow one may
// be sleeping after a command before its next step.
func livenessWindow(configuration types.ReplicaConfiguration) time.Duration {
	var slowest time.Duration
	for _, delay := range configuration.Delays {
		if delay > slowest {
			slowest = delay
		}
	}
	return 3*configuration.BeaconInterval + slowest
}

func (r *Replica) publish(state replicaControl) {
	current := Running
	if state.crashed {
		current = Crashed
	}
	atomic.StoreInt32(&r.state, int32(current))
	atomic.StoreInt32(&r.speed, int32(state.speed))
}

// ID of the replica.
func (r *Replica) ID() types.ProcessID {
	return r.id
}

// State is the last published lifecycle state.
func (r *Replica) State() ReplicaState {
	return ReplicaState(atomic.LoadInt32(&r.state))
}

// Speed is the last published processing delay level.
func (r *Replica) Speed() types.SpeedMode {
	return types.SpeedMode(atomic.LoadInt32(&r.speed))
}

// Log returns a copy of the in-memory log.
func (r *Replica) Log() []string {
	return r.log.Dump()
}

// Durable reads back the durable mirror.
func (r *Replica) Durable() ([]string, error) {
	return r.log.Durable()
}

// Close release the replica resources, must be called after Run returns.
func (r *Replica) Close() error {
	if !r.closed.Set() {
		return nil
	}
	r.beacons.close()
	return nil
}

// Pause the loop for the processing delay.
func pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Called when a step found nothing to do, before polling again.
func idle(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		runtime.Gosched()
		return
	}
	pause(ctx, interval)
}
