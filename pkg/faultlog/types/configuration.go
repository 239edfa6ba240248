package types

import "time"

// ReplicaConfiguration holds everything a replica needs to run.
type ReplicaConfiguration struct {
	// The replica identifier, must be inside the replica range.
	ID ProcessID

	// Partition of the process pool.
	Topology Topology

	// Artificial pause after an accepted command, for each level.
	Delays map[SpeedMode]time.Duration

	// The level the replica starts with.
	Speed SpeedMode

	// A running replica signals liveness to each peer at most once
	// in this interval.
	BeaconInterval time.Duration

	// How long a recovering replica waits for a peer answer.
	TransferTimeout time.Duration

	// Pause applied when a scheduling step finds nothing to do.
	PollInterval time.Duration

	// When set, the durable lines of the replica itself are part of
	// the merge input on recovery.
	Salvage bool

	// Durable mirror of the log.
	Sink Sink

	// Strategy used to combine the logs gathered on recovery.
	Merger Merger

	Logger Logger
}

// ClientConfiguration holds everything a client needs to run.
type ClientConfiguration struct {
	// The client identifier, must be inside the client range.
	ID ProcessID

	// Partition of the process pool.
	Topology Topology

	// Pause applied when a scheduling step finds nothing to do.
	PollInterval time.Duration

	// Where the recorded commands are read from.
	Source Source

	Logger Logger
}
