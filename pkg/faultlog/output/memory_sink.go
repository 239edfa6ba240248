package output

import (
	"sync"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// Provides a basic implementation of the Sink interface
// that will use only the memory, no stable storage is provided
// with this implementation.
type InMemorySink struct {
	// Mutex for operations executions
	mutex *sync.Mutex

	// The in-memory lines.
	lines []string
}

// Create a new sink using memory only.
func NewInMemorySink() types.Sink {
	return &InMemorySink{
		mutex: &sync.Mutex{},
	}
}

// Implements the Sink interface.
func (s *InMemorySink) Append(lines ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lines = append(s.lines, lines...)
	return nil
}

// Implements the Sink interface.
func (s *InMemorySink) Lines() ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	copied := make([]string, len(s.lines))
	copy(copied, s.lines)
	return copied, nil
}

// Implements the Sink interface.
func (s *InMemorySink) Close() error {
	return nil
}
