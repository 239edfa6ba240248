package types

import (
	"strconv"
	"time"
)

// ProcessID identifies a single process inside the simulation.
// The controller is always 0, replicas are 1..S and the clients
// are the S+1..S+C remaining identifiers.
type ProcessID int

// Tag is the logical channel a message travels on.
type Tag uint8

// ControlCode is the operation requested by the controller.
type ControlCode int

// SpeedMode is one of the processing delay levels of a replica.
type SpeedMode int

// PayloadKind tells which field of the Message carries the data.
type PayloadKind uint8

const (
	// ControllerID is the identifier of the single controller.
	ControllerID ProcessID = 0

	// AnySource is the wildcard source used when probing and receiving.
	AnySource ProcessID = -1
)

const (
	// ControlTag transport the fault injection and lifecycle messages.
	ControlTag Tag = iota

	// CommandTag transport the commands from clients to replicas.
	CommandTag

	// ReplicaTag is the replica to replica channel, used for the state
	// transfer and for the liveness beacons.
	ReplicaTag
)

const (
	// Crash stops the receiving process.
	Crash ControlCode = iota

	// Recovery brings a crashed process back.
	Recovery

	// Speed changes the processing delay of a replica.
	Speed

	// Start begins, or resumes, the replay of a client.
	Start
)

const (
	// Fast is the smallest processing delay.
	Fast SpeedMode = iota

	// Medium is the default processing delay.
	Medium

	// Slow is the greatest processing delay.
	Slow
)

const (
	// ControlPayload carries a Control.
	ControlPayload PayloadKind = iota

	// CommandPayload carries a RawCommand.
	CommandPayload

	// RequestStatePayload carries the RequestStateToken.
	RequestStatePayload

	// StatePayload carries a log.
	StatePayload

	// BeaconPayload is the replica liveness signal, it has no content.
	BeaconPayload
)

// The literal token sent when requesting the state of a peer.
const RequestStateToken = "REQUEST_STATE"

func (t Tag) String() string {
	switch t {
	case ControlTag:
		return "CONTROL"
	case CommandTag:
		return "COMMAND"
	case ReplicaTag:
		return "REPLICA_CHANNEL"
	default:
		return "TAG(" + strconv.Itoa(int(t)) + ")"
	}
}

func (c ControlCode) String() string {
	switch c {
	case Crash:
		return "CRASH"
	case Recovery:
		return "RECOVERY"
	case Speed:
		return "SPEED"
	case Start:
		return "START"
	default:
		return "CODE(" + strconv.Itoa(int(c)) + ")"
	}
}

func (s SpeedMode) String() string {
	switch s {
	case Fast:
		return "FAST"
	case Medium:
		return "MEDIUM"
	case Slow:
		return "SLOW"
	default:
		return "SPEED(" + strconv.Itoa(int(s)) + ")"
	}
}

// Valid reports whether the mode is one of the known levels.
func (s SpeedMode) Valid() bool {
	return s >= Fast && s <= Slow
}

// ParseSpeedMode accepts either the level name or its numeric code.
func ParseSpeedMode(value string) (SpeedMode, bool) {
	switch value {
	case "FAST", "fast":
		return Fast, true
	case "MEDIUM", "medium":
		return Medium, true
	case "SLOW", "slow":
		return Slow, true
	}
	code, err := strconv.Atoi(value)
	if err != nil || !SpeedMode(code).Valid() {
		return 0, false
	}
	return SpeedMode(code), true
}

// DefaultDelays holds the artificial pause applied after each
// accepted command, for every speed level.
func DefaultDelays() map[SpeedMode]time.Duration {
	return map[SpeedMode]time.Duration{
		Fast:   10 * time.Millisecond,
		Medium: 100 * time.Millisecond,
		Slow:   500 * time.Millisecond,
	}
}
