package core

import "sync"

// Invoker keeps track of the goroutines spawned for the roles, so
// nothing is left running after the simulation is stopped.
type Invoker interface {
	// Spawn runs the function on a new goroutine. Returns false,
	// without running anything, once the invoker is stopped.
	Spawn(func()) bool

	// Stop refuses new goroutines and blocks until the spawned ones return.
	Stop()
}

// GroupInvoker implements Invoker on top of a WaitGroup. Each
// cluster holds its own instance.
type GroupInvoker struct {
	mutex *sync.Mutex

	stopped bool

	group *sync.WaitGroup
}

func NewInvoker() Invoker {
	return &GroupInvoker{
		mutex: &sync.Mutex{},
		group: &sync.WaitGroup{},
	}
}

// GroupInvoker implements Invoker interface.
func (g *GroupInvoker) Spawn(f func()) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.stopped {
		return false
	}

	g.group.Add(1)
	go func() {
		defer g.group.Done()
		f()
	}()
	return true
}

// GroupInvoker implements Invoker interface.
func (g *GroupInvoker) Stop() {
	g.mutex.Lock()
	g.stopped = true
	g.mutex.Unlock()
	g.group.Wait()
}
