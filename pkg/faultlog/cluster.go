package faultlog

import (
	"context"
	"fmt"

	"github.com/jabolina/go-faultlog/pkg/faultlog/core"
	"github.com/jabolina/go-faultlog/pkg/faultlog/definition"
	"github.com/jabolina/go-faultlog/pkg/faultlog/helper"
	"github.com/jabolina/go-faultlog/pkg/faultlog/output"
	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
	bolt "go.etcd.io/bbolt"
)

// ReplicaStatus is a read only view of a replica.
type ReplicaStatus struct {
	State core.ReplicaState

	Speed types.SpeedMode

	// Entries on the in-memory log.
	Size int
}

// Status is a read only view of every role.
type Status struct {
	Replicas map[types.ProcessID]ReplicaStatus

	Clients map[types.ProcessID]core.ClientStatus
}

// Cluster holds a whole simulation, the controller, the replicas and
// the clients, each role running on its own goroutine. Every
// interaction with the roles happens through the controller, the
// remaining methods are only for inspection.
type Cluster struct {
	configuration *Configuration

	topology types.Topology

	controller *core.Controller

	replicas map[types.ProcessID]*core.Replica

	clients map[types.ProcessID]*core.Client

	// Every resource that must be closed on shutdown.
	transports []core.Transport
	sinks      []types.Sink
	db         *bolt.DB

	invoker core.Invoker

	log types.Logger

	// The cluster context, cancelled on shutdown.
	context context.Context
	cancel  context.CancelFunc

	closed helper.Latch
}

// NewCluster creates and starts every role of the simulation.
func NewCluster(parent context.Context, configuration *Configuration) (*Cluster, error) {
	if err := ValidateConfiguration(configuration); err != nil {
		return nil, err
	}

	topology, _ := types.NewTopology(configuration.Processes)
	ctx, cancel := context.WithCancel(parent)
	c := &Cluster{
		configuration: configuration,
		topology:      topology,
		replicas:      make(map[types.ProcessID]*core.Replica),
		clients:       make(map[types.ProcessID]*core.Client),
		invoker:       core.NewInvoker(),
		log:           configuration.Logger,
		context:       ctx,
		cancel:        cancel,
	}

	if err := c.build(); err != nil {
		c.Shutdown()
		return nil, err
	}

	for _, replica := range c.replicas {
		r := replica
		c.invoker.Spawn(func() {
			r.Run(ctx)
		})
	}

	for _, client := range c.clients {
		cl := client
		c.invoker.Spawn(func() {
			cl.Run(ctx)
		})
	}

	c.log.Infof("started cluster %s with %d replicas and %d clients", configuration.Name, topology.Servers, topology.Clients)
	return c, nil
}

func (c *Cluster) build() error {
	newTransport := c.transportFactory()
	transport, err := newTransport(types.ControllerID)
	if err != nil {
		return err
	}
	c.controller = core.NewController(c.topology, transport, c.log.Named("controller"))

	merger, err := definition.NewMerger(c.configuration.Merge)
	if err != nil {
		return err
	}

	if c.configuration.Sink == BoltSink {
		if c.db, err = output.OpenBoltDB(c.configuration.Directory); err != nil {
			return err
		}
	}

	for _, id := range c.topology.Replicas() {
		sink, err := c.sink(id)
		if err != nil {
			return err
		}

		transport, err := newTransport(id)
		if err != nil {
			return err
		}

		replica, err := core.NewReplica(types.ReplicaConfiguration{
			ID:              id,
			Topology:        c.topology,
			Delays:          c.configuration.Delays,
			Speed:           c.configuration.Speed,
			BeaconInterval:  c.configuration.BeaconInterval,
			TransferTimeout: c.configuration.TransferTimeout,
			PollInterval:    c.configuration.PollInterval,
			Salvage:         c.configuration.Salvage,
			Sink:            sink,
			Merger:          merger,
			Logger:          c.log.Named(fmt.Sprintf("replica-%d", id)),
		}, transport)
		if err != nil {
			return err
		}
		c.replicas[id] = replica
	}

	for _, id := range c.topology.ClientIDs() {
		transport, err := newTransport(id)
		if err != nil {
			return err
		}

		source, ok := c.configuration.Sources[id]
		if !ok {
			source = definition.NewFileSource(c.configuration.Directory, id)
		}

		client, err := core.NewClient(types.ClientConfiguration{
			ID:           id,
			Topology:     c.topology,
			PollInterval: c.configuration.PollInterval,
			Source:       source,
			Logger:       c.log.Named(fmt.Sprintf("client-%d", id)),
		}, transport)
		if err != nil {
			return err
		}
		c.clients[id] = client
	}
	return nil
}

// Creates the function used to connect each process, every created
// transport is tracked to be closed on shutdown.
func (c *Cluster) transportFactory() func(types.ProcessID) (core.Transport, error) {
	network := core.NewMemoryNetwork()
	return func(id types.ProcessID) (core.Transport, error) {
		var transport core.Transport
		switch c.configuration.Transport {
		case ReltTransport:
			t, err := core.NewReltTransport(c.context, core.ReltConfiguration{
				ID:     id,
				Prefix: c.configuration.Name,
				Url:    c.configuration.ReltUrl,
				Logger: c.log.Named(fmt.Sprintf("transport-%d", id)),
			})
			if err != nil {
				return nil, err
			}
			transport = t
		default:
			transport = network.Transport(id)
		}
		c.transports = append(c.transports, transport)
		return transport, nil
	}
}

func (c *Cluster) sink(id types.ProcessID) (types.Sink, error) {
	var sink types.Sink
	var err error
	switch c.configuration.Sink {
	case FileSink:
		sink, err = output.NewFileSink(c.configuration.Directory, id)
	case BoltSink:
		sink, err = output.NewSharedBoltSink(c.db, id)
	default:
		sink = output.NewInMemorySink()
	}

	if err != nil {
		return nil, err
	}
	c.sinks = append(c.sinks, sink)
	return sink, nil
}

// Topology of the simulation.
func (c *Cluster) Topology() types.Topology {
	return c.topology
}

// Controller used to interact with the roles.
func (c *Cluster) Controller() *core.Controller {
	return c.controller
}

// Replica returns the replica with the given identifier.
func (c *Cluster) Replica(id types.ProcessID) (*core.Replica, error) {
	replica, ok := c.replicas[id]
	if !ok {
		return nil, types.NewError(types.ErrInvalidProcess, "process %d is not a replica", id)
	}
	return replica, nil
}

// Client returns the client with the given identifier.
func (c *Cluster) Client(id types.ProcessID) (*core.Client, error) {
	client, ok := c.clients[id]
	if !ok {
		return nil, types.NewError(types.ErrInvalidProcess, "process %d is not a client", id)
	}
	return client, nil
}

// Log returns a copy of the replica in-memory log.
func (c *Cluster) Log(id types.ProcessID) ([]string, error) {
	replica, err := c.Replica(id)
	if err != nil {
		return nil, err
	}
	return replica.Log(), nil
}

// Durable reads the replica durable log.
func (c *Cluster) Durable(id types.ProcessID) ([]string, error) {
	replica, err := c.Replica(id)
	if err != nil {
		return nil, err
	}
	return replica.Durable()
}

// Status of every role.
func (c *Cluster) Status() Status {
	status := Status{
		Replicas: make(map[types.ProcessID]ReplicaStatus),
		Clients:  make(map[types.ProcessID]core.ClientStatus),
	}
	for id, replica := range c.replicas {
		status.Replicas[id] = ReplicaStatus{
			State: replica.State(),
			Speed: replica.Speed(),
			Size:  len(replica.Log()),
		}
	}

	for id, client := range c.clients {
		status.Clients[id] = client.Status()
	}
	return status
}

// Crash the given replica or client.
func (c *Cluster) Crash(id types.ProcessID) error {
	return c.controller.Crash(id)
}

// Recover the given replica or client.
func (c *Cluster) Recover(id types.ProcessID) error {
	return c.controller.Recover(id)
}

// Speed changes the delay level of the given replica.
func (c *Cluster) Speed(id types.ProcessID, mode types.SpeedMode) error {
	return c.controller.Speed(id, mode)
}

// Start, or resume, the given client.
func (c *Cluster) Start(id types.ProcessID) error {
	return c.controller.Start(id)
}

// StartAll starts every client.
func (c *Cluster) StartAll() error {
	return c.controller.StartAll()
}

// Shutdown stops every role and release the resources, blocking
// until every goroutine is done. Calling more than once is a no-op.
func (c *Cluster) Shutdown() {
	if !c.closed.Set() {
		return
	}

	c.cancel()
	c.invoker.Stop()
	for _, replica := range c.replicas {
		replica.Close()
	}

	for _, transport := range c.transports {
		if err := transport.Close(); err != nil {
			c.log.Warnf("failed closing transport %d. %v", transport.LocalID(), err)
		}
	}

	for _, sink := range c.sinks {
		if err := sink.Close(); err != nil {
			c.log.Warnf("failed closing sink. %v", err)
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.log.Warnf("failed closing database. %v", err)
		}
	}
	c.log.Infof("cluster %s shutdown", c.configuration.Name)
}
