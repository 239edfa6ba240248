package definition

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

const commandsBaseName = "client%d_commands.txt"

// CommandsFileName returns the recorded commands file name of a client.
func CommandsFileName(id types.ProcessID) string {
	return fmt.Sprintf(commandsBaseName, id)
}

// FileSource reads the recorded commands of a client from a text
// file, one command for each line. Blank lines are skipped.
type FileSource struct {
	path string
}

func NewFileSource(directory string, id types.ProcessID) types.Source {
	return &FileSource{path: filepath.Join(directory, CommandsFileName(id))}
}

// Implements the Source interface.
func (f *FileSource) Load() ([]types.RawCommand, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewError(types.ErrNoCommandSource, "file %s", f.path)
		}
		return nil, err
	}
	defer file.Close()

	var commands []types.RawCommand
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		commands = append(commands, types.ParseRawCommand(line))
	}
	return commands, scanner.Err()
}

// MemorySource holds the recorded commands in memory.
type MemorySource struct {
	lines []string
}

func NewMemorySource(lines ...string) types.Source {
	return &MemorySource{lines: lines}
}

// Implements the Source interface.
func (m *MemorySource) Load() ([]types.RawCommand, error) {
	commands := make([]types.RawCommand, 0, len(m.lines))
	for _, line := range m.lines {
		commands = append(commands, types.ParseRawCommand(line))
	}
	return commands, nil
}

// MissingSource is a Source that is never available.
type MissingSource struct{}

// Implements the Source interface.
func (MissingSource) Load() ([]types.RawCommand, error) {
	return nil, types.NewError(types.ErrNoCommandSource, "no recorded commands")
}
