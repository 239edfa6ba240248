package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

const logBaseName = "server%d_log.txt"

// FileSink is the Sink backed by a plain text file, one line for
// each command. The file is only ever opened for appending.
type FileSink struct {
	mutex *sync.Mutex

	// Path for the log file.
	path string

	file *os.File
}

// LogFileName returns the durable log file name of a replica.
func LogFileName(id types.ProcessID) string {
	return fmt.Sprintf(logBaseName, id)
}

// NewFileSink opens, or creates, the log file of the replica inside
// the given directory.
func NewFileSink(directory string, id types.ProcessID) (types.Sink, error) {
	path := filepath.Join(directory, LogFileName(id))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileSink{
		mutex: &sync.Mutex{},
		path:  path,
		file:  file,
	}, nil
}

// Implements the Sink interface.
func (f *FileSink) Append(lines ...string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.file == nil {
		return types.NewError(types.ErrSinkClosed, "file sink %s", f.path)
	}

	w := bufio.NewWriter(f.file)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Implements the Sink interface.
func (f *FileSink) Lines() ([]string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Implements the Sink interface.
func (f *FileSink) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
