package output

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

func command(t *testing.T, arg string, at int64) types.Command {
	cmd, err := types.Validate(types.ParseRawCommand("APPEND "+arg), 3, time.Unix(0, at))
	if err != nil {
		t.Fatalf("failed validating %s. %v", arg, err)
	}
	return cmd
}

func TestLog_AppendAndRead(t *testing.T) {
	sink := NewInMemorySink()
	log := NewLogStructure(sink)
	testSize := 1000
	var expected []string
	for i := 0; i < testSize; i++ {
		cmd := command(t, fmt.Sprintf("v%d", i), int64(i))
		if err := log.Append(cmd); err != nil {
			t.Errorf("failed appending %#v. %#v", cmd, err)
		}
		expected = append(expected, cmd.Line())
	}

	if log.Size() != uint64(testSize) {
		t.Errorf("Expected %d operations found %d", testSize, log.Size())
	}

	if !reflect.DeepEqual(log.Dump(), expected) {
		t.Errorf("in-memory log differ from appended lines")
	}

	durable, err := log.Durable()
	if err != nil {
		t.Fatalf("failed reading durable. %v", err)
	}

	if !reflect.DeepEqual(durable, expected) {
		t.Errorf("durable log differ from appended lines")
	}
}

func TestLog_ShouldHandleConcurrentOperations(t *testing.T) {
	log := NewLogStructure(NewInMemorySink())
	testSize := 1000
	group := &sync.WaitGroup{}

	group.Add(testSize)
	for i := 0; i < testSize; i++ {
		appendCommand := func(ts int) {
			defer group.Done()
			cmd, err := types.Validate(types.ParseRawCommand(fmt.Sprintf("SET v%d", ts)), 3, time.Unix(0, int64(ts)))
			if err != nil {
				t.Errorf("failed validating. %v", err)
				return
			}
			if err := log.Append(cmd); err != nil {
				t.Errorf("failed appending %#v. %#v", cmd, err)
			}
			log.Dump()
		}
		go appendCommand(i)
	}

	group.Wait()

	if log.Size() != uint64(testSize) {
		t.Errorf("Expected %d operations found %d", testSize, log.Size())
	}
}

func TestLog_ClearKeepsDurable(t *testing.T) {
	log := NewLogStructure(NewInMemorySink())
	for i := 0; i < 3; i++ {
		if err := log.Append(command(t, "x", int64(i))); err != nil {
			t.Fatalf("failed appending. %v", err)
		}
	}

	log.Clear()
	if log.Size() != 0 {
		t.Errorf("log should be empty after clear, found %d", log.Size())
	}

	durable, _ := log.Durable()
	if len(durable) != 3 {
		t.Errorf("durable should keep 3 lines, found %d", len(durable))
	}
}

func TestLog_ResumeAppendsToDurable(t *testing.T) {
	log := NewLogStructure(NewInMemorySink())
	first := command(t, "a", 1)
	if err := log.Append(first); err != nil {
		t.Fatalf("failed appending. %v", err)
	}
	log.Clear()

	resumed := []string{command(t, "b", 2).Line(), command(t, "c", 3).Line()}
	if err := log.Resume(resumed, nil); err != nil {
		t.Fatalf("failed resuming. %v", err)
	}

	if !reflect.DeepEqual(log.Dump(), resumed) {
		t.Errorf("expected %v, found %v", resumed, log.Dump())
	}

	durable, _ := log.Durable()
	expected := append([]string{first.Line()}, resumed...)
	if !reflect.DeepEqual(durable, expected) {
		t.Errorf("expected durable %v, found %v", expected, durable)
	}

	// Changing the given slice must not change the log.
	resumed[0] = "changed"
	if log.Dump()[0] == "changed" {
		t.Errorf("resume must copy the lines")
	}
}

func TestLog_ResumeEmpty(t *testing.T) {
	log := NewLogStructure(NewInMemorySink())
	if err := log.Resume(nil, nil); err != nil {
		t.Fatalf("failed resuming. %v", err)
	}

	if log.Size() != 0 {
		t.Errorf("log should be empty")
	}

	durable, _ := log.Durable()
	if len(durable) != 0 {
		t.Errorf("durable should be empty, found %v", durable)
	}
}

func TestLog_ResumeSkipsPersistedLines(t *testing.T) {
	log := NewLogStructure(NewInMemorySink())
	own := command(t, "a", 1)
	if err := log.Append(own); err != nil {
		t.Fatalf("failed appending. %v", err)
	}

	for i := 0; i < 3; i++ {
		log.Clear()
		persisted, err := log.Durable()
		if err != nil {
			t.Fatalf("failed reading durable. %v", err)
		}

		peer := command(t, "b", 2).Line()
		if err := log.Resume([]string{own.Line(), peer}, persisted); err != nil {
			t.Fatalf("failed resuming. %v", err)
		}
	}

	durable, _ := log.Durable()
	expected := []string{own.Line(), command(t, "b", 2).Line()}
	if !reflect.DeepEqual(durable, expected) {
		t.Errorf("expected durable %v, found %v", expected, durable)
	}

	if log.Size() != 2 {
		t.Errorf("expected 2 lines in memory, found %d", log.Size())
	}
}
