package types

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	commandArity   = 2
	lineSeparator  = "\t"
	lineFieldCount = 4
)

// Command is a validated client operation. The timestamp is the
// acceptance time at the replica, never the client time.
// A Command is a value and must not be changed after Validate.
type Command struct {
	// Name of the operation, only letters.
	Operation string

	// Operation argument, never empty.
	Argument string

	// Client that issued the command.
	Client ProcessID

	// When the replica accepted the command.
	Timestamp time.Time
}

// Validate applies the structural check over the raw command and
// produces the Command accepted at the given time.
// A valid raw command has exactly two fields, an alphabetic
// operation followed by a non empty argument.
func Validate(raw RawCommand, client ProcessID, at time.Time) (Command, error) {
	if len(raw.Fields) != commandArity {
		return Command{}, NewError(ErrMalformedCommand, "expected %d fields, found %d", commandArity, len(raw.Fields))
	}

	operation, argument := raw.Fields[0], raw.Fields[1]
	if !isOperation(operation) {
		return Command{}, NewError(ErrMalformedCommand, "operation %q is not a name", operation)
	}

	if len(argument) == 0 || strings.ContainsAny(argument, " \t\r\n") {
		return Command{}, NewError(ErrMalformedCommand, "invalid argument %q", argument)
	}

	return Command{
		Operation: operation,
		Argument:  argument,
		Client:    client,
		Timestamp: time.Unix(0, at.UnixNano()),
	}, nil
}

func isOperation(value string) bool {
	if len(value) == 0 {
		return false
	}
	for _, r := range value {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Line is the canonical log encoding of the command:
// `<unix-nanos>\t<client>\t<operation>\t<argument>`.
func (c Command) Line() string {
	return strings.Join([]string{
		strconv.FormatInt(c.Timestamp.UnixNano(), 10),
		strconv.Itoa(int(c.Client)),
		c.Operation,
		c.Argument,
	}, lineSeparator)
}

// DecodeLine parses a log line back into the Command it was
// generated from.
func DecodeLine(line string) (Command, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), lineSeparator)
	if len(fields) != lineFieldCount {
		return Command{}, NewError(ErrMalformedLine, "expected %d fields, found %d", lineFieldCount, len(fields))
	}

	nanos, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Command{}, NewError(ErrMalformedLine, "timestamp %q: %v", fields[0], err)
	}

	client, err := strconv.Atoi(fields[1])
	if err != nil {
		return Command{}, NewError(ErrMalformedLine, "client %q: %v", fields[1], err)
	}

	return Validate(RawCommand{Fields: fields[2:]}, ProcessID(client), time.Unix(0, nanos))
}
