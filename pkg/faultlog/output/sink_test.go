package output

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "faultlog-sink")
	if err != nil {
		t.Fatalf("failed creating dir. %v", err)
	}
	return dir
}

func verifySink(t *testing.T, sink types.Sink) {
	if err := sink.Append("a"); err != nil {
		t.Fatalf("failed appending. %v", err)
	}

	if err := sink.Append("b", "c"); err != nil {
		t.Fatalf("failed appending. %v", err)
	}

	lines, err := sink.Lines()
	if err != nil {
		t.Fatalf("failed reading. %v", err)
	}

	if !reflect.DeepEqual(lines, []string{"a", "b", "c"}) {
		t.Errorf("unexpected lines %v", lines)
	}
}

func TestInMemorySink(t *testing.T) {
	verifySink(t, NewInMemorySink())
}

func TestFileSink_AppendOnly(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	if err := ioutil.WriteFile(filepath.Join(dir, LogFileName(1)), []byte("old\n"), 0644); err != nil {
		t.Fatalf("failed writing previous content. %v", err)
	}

	sink, err := NewFileSink(dir, 1)
	if err != nil {
		t.Fatalf("failed creating sink. %v", err)
	}

	if err := sink.Append("new"); err != nil {
		t.Fatalf("failed appending. %v", err)
	}

	lines, err := sink.Lines()
	if err != nil {
		t.Fatalf("failed reading. %v", err)
	}

	if !reflect.DeepEqual(lines, []string{"old", "new"}) {
		t.Errorf("previous content must be kept, found %v", lines)
	}

	if err := sink.Close(); err != nil {
		t.Errorf("failed closing. %v", err)
	}

	if err := sink.Append("late"); !types.Is(err, types.ErrSinkClosed) {
		t.Errorf("append after close should fail, found %v", err)
	}
}

func TestFileSink_Lines(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	sink, err := NewFileSink(dir, 2)
	if err != nil {
		t.Fatalf("failed creating sink. %v", err)
	}
	defer sink.Close()
	verifySink(t, sink)
}

func TestBoltSink(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	sink, err := NewBoltSink(dir, 1)
	if err != nil {
		t.Fatalf("failed creating sink. %v", err)
	}
	defer sink.Close()
	verifySink(t, sink)
}

func TestSharedBoltSink_SeparateBuckets(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	db, err := OpenBoltDB(dir)
	if err != nil {
		t.Fatalf("failed opening db. %v", err)
	}
	defer db.Close()

	first, err := NewSharedBoltSink(db, 1)
	if err != nil {
		t.Fatalf("failed creating sink. %v", err)
	}

	second, err := NewSharedBoltSink(db, 2)
	if err != nil {
		t.Fatalf("failed creating sink. %v", err)
	}

	verifySink(t, first)
	if err := second.Append("other"); err != nil {
		t.Fatalf("failed appending. %v", err)
	}

	lines, _ := second.Lines()
	if !reflect.DeepEqual(lines, []string{"other"}) {
		t.Errorf("buckets should be independent, found %v", lines)
	}

	// Closing a shared sink keeps the database available.
	if err := first.Close(); err != nil {
		t.Errorf("failed closing. %v", err)
	}

	if _, err := second.Lines(); err != nil {
		t.Errorf("database should still be open. %v", err)
	}
}
