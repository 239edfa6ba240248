package types

import "strings"

// Control is the payload sent by the controller.
type Control struct {
	// Which operation is requested.
	Code ControlCode

	// Extra arguments, e.g. the speed level.
	Args []int
}

// RawCommand is the command as recorded by the client, one entry
// for each whitespace separated field of the recorded line.
type RawCommand struct {
	Fields []string
}

// ParseRawCommand splits a recorded line into a RawCommand. No
// validation happens here, that is a replica responsibility.
func ParseRawCommand(line string) RawCommand {
	return RawCommand{Fields: strings.Fields(line)}
}

func (r RawCommand) String() string {
	return strings.Join(r.Fields, " ")
}

// Message is the unit exchanged over the transport.
// Only the field matching Kind holds data.
type Message struct {
	// Process that sent the message.
	From ProcessID

	// Process that must receive the message.
	To ProcessID

	// Logical channel.
	Tag Tag

	// Which payload the message carries.
	Kind PayloadKind

	// Set for ControlPayload.
	Control Control

	// Set for CommandPayload.
	Command RawCommand

	// Set for RequestStatePayload.
	Token string

	// Set for StatePayload.
	Log []string
}

// NewControlMessage creates a control message from the controller.
func NewControlMessage(to ProcessID, code ControlCode, args ...int) Message {
	return Message{
		From:    ControllerID,
		To:      to,
		Tag:     ControlTag,
		Kind:    ControlPayload,
		Control: Control{Code: code, Args: args},
	}
}

// NewCommandMessage creates a client command addressed to a replica.
func NewCommandMessage(from, to ProcessID, command RawCommand) Message {
	return Message{
		From:    from,
		To:      to,
		Tag:     CommandTag,
		Kind:    CommandPayload,
		Command: command,
	}
}

// NewRequestStateMessage asks a peer for its current log.
func NewRequestStateMessage(from, to ProcessID) Message {
	return Message{
		From:  from,
		To:    to,
		Tag:   ReplicaTag,
		Kind:  RequestStatePayload,
		Token: RequestStateToken,
	}
}

// NewStateMessage answers a state request with a copy of the log.
func NewStateMessage(from, to ProcessID, log []string) Message {
	copied := make([]string, len(log))
	copy(copied, log)
	return Message{
		From: from,
		To:   to,
		Tag:  ReplicaTag,
		Kind: StatePayload,
		Log:  copied,
	}
}

// NewBeaconMessage creates the liveness signal of a replica.
func NewBeaconMessage(from, to ProcessID) Message {
	return Message{
		From: from,
		To:   to,
		Tag:  ReplicaTag,
		Kind: BeaconPayload,
	}
}

// IsRequestState verify if the message is a well formed state request.
func (m Message) IsRequestState() bool {
	return m.Kind == RequestStatePayload && m.Token == RequestStateToken
}
