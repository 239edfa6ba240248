package output

import (
	"sync"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// Log abstraction for the commands accepted by a replica.
// This is an append only log, where every command will be added
// at the tail of the log, mirrored on a durable Sink.
//
// The in-memory sequence is owned by the replica loop, the only
// operations that break the append only rule are Clear, used when
// the replica crashes, and Resume, used when it recovers. The
// durable mirror is never rewritten.
type Log interface {
	// Append the command line at the tail of the log and of the
	// durable mirror.
	Append(types.Command) error

	// Dump a copy of the in-memory lines at the time of the request.
	Dump() []string

	// Size is the amount of in-memory lines.
	Size() uint64

	// Clear discard the in-memory lines, the durable mirror is untouched.
	Clear()

	// Resume uses the lines as the new in-memory sequence. The lines
	// are appended to the durable mirror, except the ones accounted
	// by persisted, which were read from the mirror itself. Each
	// persisted entry accounts for a single occurrence.
	Resume(lines []string, persisted []string) error

	// Durable read back the durable mirror.
	Durable() ([]string, error)
}

// AppendOnlyLog is a Log implementation that holds the lines in memory
// and forwards every change to the durable Sink.
type AppendOnlyLog struct {
	// Synchronize operations, so the inspection from other goroutines
	// is safe while the replica loop is appending.
	mutex *sync.Mutex

	// The durable mirror.
	sink types.Sink

	// List of encoded commands, append only.
	log []string
}

func NewLogStructure(sink types.Sink) Log {
	return &AppendOnlyLog{
		mutex: &sync.Mutex{},
		sink:  sink,
	}
}

// Append a new command to the log structure.
// The durable mirror is written first, if it fails the in-memory
// log is not changed, so both always hold the same tail.
func (a *AppendOnlyLog) Append(command types.Command) error {
	line := command.Line()
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if err := a.sink.Append(line); err != nil {
		return err
	}
	a.log = append(a.log, line)
	return nil
}

func (a *AppendOnlyLog) Dump() []string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	copied := make([]string, len(a.log))
	copy(copied, a.log)
	return copied
}

func (a *AppendOnlyLog) Size() uint64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return uint64(len(a.log))
}

func (a *AppendOnlyLog) Clear() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.log = nil
}

func (a *AppendOnlyLog) Resume(lines []string, persisted []string) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if len(lines) == 0 {
		a.log = nil
		return nil
	}

	known := make(map[string]int, len(persisted))
	for _, line := range persisted {
		known[line]++
	}

	missing := make([]string, 0, len(lines))
	for _, line := range lines {
		if known[line] > 0 {
			known[line]--
			continue
		}
		missing = append(missing, line)
	}

	if len(missing) > 0 {
		if err := a.sink.Append(missing...); err != nil {
			return err
		}
	}
	a.log = make([]string, len(lines))
	copy(a.log, lines)
	return nil
}

func (a *AppendOnlyLog) Durable() ([]string, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.sink.Lines()
}
