package types

import (
	"testing"
	"time"
)

func TestValidate_AcceptsWellFormedCommand(t *testing.T) {
	at := time.Unix(1594480630, 123456789)
	cmd, err := Validate(ParseRawCommand("APPEND hello"), 3, at)
	if err != nil {
		t.Fatalf("failed validating command. %v", err)
	}

	if cmd.Operation != "APPEND" || cmd.Argument != "hello" {
		t.Errorf("wrong command content %#v", cmd)
	}

	if cmd.Client != 3 {
		t.Errorf("expected client 3, found %d", cmd.Client)
	}

	if !cmd.Timestamp.Equal(at) {
		t.Errorf("expected timestamp %v, found %v", at, cmd.Timestamp)
	}
}

func TestValidate_RejectsMalformedCommands(t *testing.T) {
	malformed := []string{
		"",
		"APPEND",
		"APPEND a b",
		"42 value",
		"op-erate value",
	}
	for _, line := range malformed {
		if _, err := Validate(ParseRawCommand(line), 3, time.Now()); !Is(err, ErrMalformedCommand) {
			t.Errorf("line %q should be rejected, found %v", line, err)
		}
	}
}

func TestCommand_LineIsDeterministic(t *testing.T) {
	at := time.Unix(10, 5)
	cmd, err := Validate(ParseRawCommand("SET x"), 4, at)
	if err != nil {
		t.Fatalf("failed validating. %v", err)
	}

	expected := "10000000005\t4\tSET\tx"
	if cmd.Line() != expected {
		t.Errorf("expected line %q, found %q", expected, cmd.Line())
	}

	if cmd.Line() != cmd.Line() {
		t.Errorf("line encoding must not change between calls")
	}
}

func TestDecodeLine_RoundTrip(t *testing.T) {
	cmd, err := Validate(ParseRawCommand("SET value"), 5, time.Now())
	if err != nil {
		t.Fatalf("failed validating. %v", err)
	}

	decoded, err := DecodeLine(cmd.Line() + "\n")
	if err != nil {
		t.Fatalf("failed decoding. %v", err)
	}

	if decoded.Line() != cmd.Line() {
		t.Errorf("expected %q, found %q", cmd.Line(), decoded.Line())
	}

	if !decoded.Timestamp.Equal(cmd.Timestamp) {
		t.Errorf("timestamp differ %v and %v", decoded.Timestamp, cmd.Timestamp)
	}
}

func TestDecodeLine_Malformed(t *testing.T) {
	lines := []string{
		"",
		"1\t2\tSET",
		"ts\t2\tSET\tx",
		"1\tclient\tSET\tx",
		"1\t2\t3\tx",
	}
	for _, line := range lines {
		if _, err := DecodeLine(line); err == nil {
			t.Errorf("line %q should fail decoding", line)
		}
	}
}

func TestParseSpeedMode(t *testing.T) {
	cases := map[string]SpeedMode{
		"FAST":   Fast,
		"medium": Medium,
		"SLOW":   Slow,
		"0":      Fast,
		"2":      Slow,
	}
	for value, expected := range cases {
		mode, ok := ParseSpeedMode(value)
		if !ok || mode != expected {
			t.Errorf("%s should be %s, found %s", value, expected, mode)
		}
	}

	for _, value := range []string{"3", "-1", "TURBO"} {
		if _, ok := ParseSpeedMode(value); ok {
			t.Errorf("%s should not be a speed mode", value)
		}
	}
}
