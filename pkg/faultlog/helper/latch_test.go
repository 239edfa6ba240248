package helper

import (
	"strings"
	"sync"
	"testing"
)

func TestLatch_SetOnlyOnce(t *testing.T) {
	l := &Latch{}
	if l.IsSet() {
		t.Fatalf("latch should start unset")
	}

	if !l.Set() {
		t.Errorf("first set should change the latch")
	}

	if l.Set() {
		t.Errorf("second set should not change the latch")
	}

	if !l.IsSet() {
		t.Errorf("latch should be set")
	}
}

func TestLatch_ConcurrentSet(t *testing.T) {
	l := &Latch{}
	group := &sync.WaitGroup{}
	changed := make(chan bool, 100)
	group.Add(100)
	for i := 0; i < 100; i++ {
		go func() {
			defer group.Done()
			changed <- l.Set()
		}()
	}
	group.Wait()
	close(changed)

	count := 0
	for c := range changed {
		if c {
			count++
		}
	}

	if count != 1 {
		t.Errorf("expected a single transition, found %d", count)
	}
}

func TestRandomName_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		name := RandomName("sim")
		if !strings.HasPrefix(name, "sim-") {
			t.Fatalf("name %s without prefix", name)
		}
		if seen[name] {
			t.Fatalf("name %s generated twice", name)
		}
		seen[name] = true
	}
}
