package types

// Role a process plays in the simulation.
type Role uint8

const (
	ControllerRole Role = iota
	ReplicaRole
	ClientRole
	UnknownRole
)

func (r Role) String() string {
	switch r {
	case ControllerRole:
		return "controller"
	case ReplicaRole:
		return "replica"
	case ClientRole:
		return "client"
	default:
		return "unknown"
	}
}

// Topology is the partition of the process pool into roles.
type Topology struct {
	// How many processes, controller included.
	Total int

	// How many replicas.
	Servers int

	// How many clients.
	Clients int
}

// NewTopology partition the given amount of processes. The
// controller takes one, half of the remaining (rounded down)
// are replicas and the rest are clients.
func NewTopology(total int) (Topology, error) {
	if total < 1 {
		return Topology{}, NewError(ErrInvalidConfiguration, "at least one process is required, found %d", total)
	}
	servers := (total - 1) / 2
	return Topology{
		Total:   total,
		Servers: servers,
		Clients: total - servers - 1,
	}, nil
}

// RoleOf returns the role of the given process.
func (t Topology) RoleOf(id ProcessID) Role {
	switch {
	case id == ControllerID:
		return ControllerRole
	case id >= 1 && int(id) <= t.Servers:
		return ReplicaRole
	case int(id) > t.Servers && int(id) < t.Total:
		return ClientRole
	default:
		return UnknownRole
	}
}

// Replicas returns the replica identifiers in ascending order.
func (t Topology) Replicas() []ProcessID {
	ids := make([]ProcessID, 0, t.Servers)
	for i := 1; i <= t.Servers; i++ {
		ids = append(ids, ProcessID(i))
	}
	return ids
}

// ClientIDs returns the client identifiers in ascending order.
func (t Topology) ClientIDs() []ProcessID {
	ids := make([]ProcessID, 0, t.Clients)
	for i := t.Servers + 1; i < t.Total; i++ {
		ids = append(ids, ProcessID(i))
	}
	return ids
}

// Peers returns every replica except the given one, in ascending order.
func (t Topology) Peers(self ProcessID) []ProcessID {
	var peers []ProcessID
	for _, id := range t.Replicas() {
		if id != self {
			peers = append(peers, id)
		}
	}
	return peers
}
