package core

import (
	"context"
	"sync"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// ClientState is the lifecycle state of a client.
type ClientState int

const (
	Idle ClientState = iota
	Active
	ClientCrashed
)

func (s ClientState) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case ClientCrashed:
		return "CRASHED"
	default:
		return "IDLE"
	}
}

// ClientStatus is a read only view of a client.
type ClientStatus struct {
	State ClientState

	// How many recorded commands were already sent, the resume cursor.
	Sent int

	// How many recorded commands were loaded.
	Total int
}

// Done verify if every recorded command was already sent.
func (s ClientStatus) Done() bool {
	return s.State != Idle && s.Sent == s.Total
}

// The client state, owned by the client loop.
type clientState struct {
	// Set by the first successful start, never unset.
	started bool

	crashed bool

	// Index of the next command to send.
	cursor int

	commands []types.RawCommand

	// If the missing source was already reported.
	reported bool
}

func (s clientState) status() ClientStatus {
	current := Idle
	switch {
	case s.started && s.crashed:
		current = ClientCrashed
	case s.started:
		current = Active
	}
	return ClientStatus{
		State: current,
		Sent:  s.cursor,
		Total: len(s.commands),
	}
}

// Client replays the recorded commands to every replica.
type Client struct {
	id types.ProcessID

	configuration types.ClientConfiguration

	transport Transport

	replicas []types.ProcessID

	logger types.Logger

	mutex  *sync.RWMutex
	status ClientStatus
}

// NewClient creates the client for the given configuration. The
// client does nothing until Run is called.
func NewClient(configuration types.ClientConfiguration, transport Transport) (*Client, error) {
	if configuration.Topology.RoleOf(configuration.ID) != types.ClientRole {
		return nil, types.NewError(types.ErrInvalidProcess, "process %d is not a client", configuration.ID)
	}

	if configuration.Source == nil || configuration.Logger == nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "client %d requires source and logger", configuration.ID)
	}

	return &Client{
		id:            configuration.ID,
		configuration: configuration,
		transport:     transport,
		replicas:      configuration.Topology.Replicas(),
		logger:        configuration.Logger,
		mutex:         &sync.RWMutex{},
	}, nil
}

// Run the client loop until the context is done.
func (c *Client) Run(ctx context.Context) {
	defer c.logger.Debugf("closing client %d", c.id)
	state := clientState{}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var handled bool
		state, handled = c.step(ctx, state)
		c.publish(state)
		if !handled {
			idle(ctx, c.configuration.PollInterval)
		}
	}
}

// A single scheduling step. A control message has priority, otherwise
// the next recorded command is sent. The crash is verified before
// every send, since each send is a step of its own.
func (c *Client) step(ctx context.Context, state clientState) (clientState, bool) {
	if c.transport.Probe(types.ControllerID, types.ControlTag) {
		message, err := c.transport.Receive(ctx, types.ControllerID, types.ControlTag)
		if err != nil {
			c.logger.Warnf("client %d failed receiving control. %v", c.id, err)
			return state, false
		}
		return c.control(state, message.Control), true
	}

	if !state.started || state.crashed || state.cursor >= len(state.commands) {
		return state, false
	}

	c.broadcast(state.commands[state.cursor])
	state.cursor++
	if state.cursor == len(state.commands) {
		c.logger.Infof("client %d sent all %d commands", c.id, state.cursor)
	}
	return state, true
}

func (c *Client) control(state clientState, control types.Control) clientState {
	switch control.Code {
	case types.Start:
		return c.start(state)
	case types.Recovery:
		if state.started && state.crashed {
			c.logger.Infof("client %d recovered at %d/%d", c.id, state.cursor, len(state.commands))
			state.crashed = false
		}
	case types.Crash:
		if state.started && !state.crashed {
			c.logger.Infof("client %d crashed at %d/%d", c.id, state.cursor, len(state.commands))
			state.crashed = true
		}
	default:
		c.logger.Debugf("client %d ignoring %s", c.id, control.Code)
	}
	return state
}

// Start, or resume, the replay. The commands are loaded only once,
// so the replay continues from the cursor.
func (c *Client) start(state clientState) clientState {
	if !state.started {
		commands, err := c.configuration.Source.Load()
		if err != nil {
			if !state.reported {
				c.logger.Errorf("client %d has no recorded commands. %v", c.id, err)
				state.reported = true
			}
			return state
		}
		state.commands = commands
		state.started = true
		c.logger.Infof("client %d started with %d commands", c.id, len(commands))
		return state
	}

	if state.crashed {
		c.logger.Infof("client %d resumed at %d/%d", c.id, state.cursor, len(state.commands))
		state.crashed = false
	}
	return state
}

// Send the command to every replica, the same payload for each one.
func (c *Client) broadcast(command types.RawCommand) {
	for _, replica := range c.replicas {
		if err := c.transport.Send(types.NewCommandMessage(c.id, replica, command)); err != nil {
			c.logger.Warnf("client %d failed sending %s to %d. %v", c.id, command, replica, err)
		}
	}
}

func (c *Client) publish(state clientState) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.status = state.status()
}

// ID of the client.
func (c *Client) ID() types.ProcessID {
	return c.id
}

// Status returns the last published client state.
func (c *Client) Status() ClientStatus {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.status
}
