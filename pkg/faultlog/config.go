package faultlog

import (
	"time"

	"github.com/jabolina/go-faultlog/pkg/faultlog/core"
	"github.com/jabolina/go-faultlog/pkg/faultlog/definition"
	"github.com/jabolina/go-faultlog/pkg/faultlog/helper"
	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// SinkKind is where the replicas keep the durable log.
type SinkKind string

// TransportKind is how the processes exchange messages.
type TransportKind string

const (
	// MemorySink keeps the durable log in memory, useful for tests.
	MemorySink SinkKind = "memory"

	// FileSink keeps one text file for each replica.
	FileSink SinkKind = "file"

	// BoltSink keeps one bucket for each replica on a single bbolt file.
	BoltSink SinkKind = "bolt"
)

const (
	// MemoryTransport connects every process inside the same address space.
	MemoryTransport TransportKind = "memory"

	// ReltTransport exchange the messages through a RabbitMQ broker.
	ReltTransport TransportKind = "relt"
)

// Configuration of a whole simulation.
type Configuration struct {
	// Name of the simulation, used as prefix for the broker exchanges.
	Name string

	// How many processes the simulation has, controller included.
	Processes int

	// Directory with the client commands files and the durable logs.
	Directory string

	// Where the durable logs are kept.
	Sink SinkKind

	// Merge strategy used on recovery, one of concat, dedup or sorted.
	Merge string

	// Artificial pause after each received command, for each level.
	Delays map[types.SpeedMode]time.Duration

	// Level every replica starts with.
	Speed types.SpeedMode

	// Maximum frequency of the replica liveness beacons.
	BeaconInterval time.Duration

	// How long a recovering replica waits for each peer.
	TransferTimeout time.Duration

	// Pause applied when a loop has nothing to do.
	PollInterval time.Duration

	// Include the replica durable lines in the recovery.
	Salvage bool

	// How the processes are connected.
	Transport TransportKind

	// Broker url used by the relt transport.
	ReltUrl string

	// Overrides the file source of specific clients.
	Sources map[types.ProcessID]types.Source

	Logger types.Logger
}

// DefaultConfiguration creates a configuration ready to be used, the
// processes are connected in memory and nothing is written to disk.
func DefaultConfiguration(processes int) *Configuration {
	return &Configuration{
		Name:            helper.RandomName("faultlog"),
		Processes:       processes,
		Directory:       ".",
		Sink:            MemorySink,
		Merge:           "concat",
		Delays:          types.DefaultDelays(),
		Speed:           types.Medium,
		BeaconInterval:  core.DefaultBeaconInterval,
		TransferTimeout: time.Second,
		PollInterval:    time.Millisecond,
		Transport:       MemoryTransport,
		Sources:         make(map[types.ProcessID]types.Source),
		Logger:          definition.NewDefaultLogger(),
	}
}

// ValidateConfiguration verify if the configuration can be used,
// missing optional values are filled with the defaults.
func ValidateConfiguration(configuration *Configuration) error {
	if configuration == nil {
		return types.NewError(types.ErrInvalidConfiguration, "missing configuration")
	}

	if _, err := types.NewTopology(configuration.Processes); err != nil {
		return err
	}

	switch configuration.Sink {
	case MemorySink, FileSink, BoltSink:
	default:
		return types.NewError(types.ErrInvalidConfiguration, "unknown sink %q", configuration.Sink)
	}

	switch configuration.Transport {
	case MemoryTransport, ReltTransport:
	default:
		return types.NewError(types.ErrInvalidConfiguration, "unknown transport %q", configuration.Transport)
	}

	if _, err := definition.NewMerger(configuration.Merge); err != nil {
		return err
	}

	if !configuration.Speed.Valid() {
		return types.NewError(types.ErrInvalidConfiguration, "unknown speed %s", configuration.Speed)
	}

	if configuration.BeaconInterval < 0 || configuration.TransferTimeout < 0 || configuration.PollInterval < 0 {
		return types.NewError(types.ErrInvalidConfiguration, "intervals can not be negative")
	}

	if configuration.Delays == nil {
		configuration.Delays = types.DefaultDelays()
	}

	for _, mode := range []types.SpeedMode{types.Fast, types.Medium, types.Slow} {
		if _, ok := configuration.Delays[mode]; !ok {
			return types.NewError(types.ErrInvalidConfiguration, "missing delay for %s", mode)
		}
	}

	if len(configuration.Directory) == 0 {
		configuration.Directory = "."
	}

	if len(configuration.Name) == 0 {
		configuration.Name = helper.RandomName("faultlog")
	}

	if configuration.Sources == nil {
		configuration.Sources = make(map[types.ProcessID]types.Source)
	}

	if configuration.Logger == nil {
		configuration.Logger = definition.NewDefaultLogger()
	}

	return nil
}
