package core

import (
	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// Controller is the sole authority issuing the fault injection and
// lifecycle commands. Every method only sends the control message,
// the effect is observed by the target on its next step.
type Controller struct {
	transport Transport

	topology types.Topology

	logger types.Logger
}

func NewController(topology types.Topology, transport Transport, logger types.Logger) *Controller {
	return &Controller{
		transport: transport,
		topology:  topology,
		logger:    logger,
	}
}

// Crash a replica or a client.
func (c *Controller) Crash(id types.ProcessID) error {
	if err := c.expect(id, types.ReplicaRole, types.ClientRole); err != nil {
		return err
	}
	return c.Send(types.NewControlMessage(id, types.Crash))
}

// Recover a replica or a client.
func (c *Controller) Recover(id types.ProcessID) error {
	if err := c.expect(id, types.ReplicaRole, types.ClientRole); err != nil {
		return err
	}
	return c.Send(types.NewControlMessage(id, types.Recovery))
}

// Speed changes the processing delay of a replica.
func (c *Controller) Speed(id types.ProcessID, mode types.SpeedMode) error {
	if err := c.expect(id, types.ReplicaRole); err != nil {
		return err
	}
	return c.Send(types.NewControlMessage(id, types.Speed, int(mode)))
}

// Start, or resume, the replay of a client.
func (c *Controller) Start(id types.ProcessID) error {
	if err := c.expect(id, types.ClientRole); err != nil {
		return err
	}
	return c.Send(types.NewControlMessage(id, types.Start))
}

// StartAll starts every client.
func (c *Controller) StartAll() error {
	for _, id := range c.topology.ClientIDs() {
		if err := c.Start(id); err != nil {
			return err
		}
	}
	return nil
}

// Send a raw control message, without verifying the target.
func (c *Controller) Send(message types.Message) error {
	c.logger.Debugf("sending %s%v to %d", message.Control.Code, message.Control.Args, message.To)
	return c.transport.Send(message)
}

func (c *Controller) expect(id types.ProcessID, roles ...types.Role) error {
	role := c.topology.RoleOf(id)
	for _, expected := range roles {
		if role == expected {
			return nil
		}
	}
	return types.NewError(types.ErrInvalidProcess, "process %d is %s, expected %v", id, role, roles)
}
