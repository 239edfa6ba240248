package helper

import "sync/atomic"

// Latch is a set once boolean, used to make close operations
// idempotent. The zero value is ready to use and unset.
type Latch struct {
	value int32
}

// IsSet reports whether Set was already called.
func (l *Latch) IsSet() bool {
	return atomic.LoadInt32(&l.value) == 1
}

// Set the latch. Only the first call returns true.
func (l *Latch) Set() bool {
	return atomic.CompareAndSwapInt32(&l.value, 0, 1)
}
