package types

// Sink is the durable mirror of a replica log. This is an append
// only structure, every line is added at the tail and nothing is
// ever rewritten.
type Sink interface {
	// Append the given lines at the tail of the durable log.
	Append(lines ...string) error

	// Lines read back the whole durable content, in append order.
	Lines() ([]string, error)

	// Close release any resource held by the sink.
	Close() error
}

// Merger combines the log sequences gathered during a recovery into
// the single sequence that will be the resumed log.
type Merger interface {
	Merge(logs ...[]string) []string
}

// Source provides the pre-recorded commands of a client.
type Source interface {
	// Load all the recorded commands, in replay order.
	Load() ([]RawCommand, error)
}
