package repl

import (
	"strconv"
	"strings"
	"time"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// Kind of a controller directive.
type Kind int

const (
	CrashDirective Kind = iota
	RecoveryDirective
	SpeedDirective
	StartDirective
	WaitDirective
	LogDirective
)

var keywords = map[string]Kind{
	"CRASH":    CrashDirective,
	"RECOVERY": RecoveryDirective,
	"SPEED":    SpeedDirective,
	"START":    StartDirective,
	"WAIT":     WaitDirective,
	"LOG":      LogDirective,
}

func (k Kind) String() string {
	switch k {
	case CrashDirective:
		return "CRASH"
	case RecoveryDirective:
		return "RECOVERY"
	case SpeedDirective:
		return "SPEED"
	case StartDirective:
		return "START"
	case WaitDirective:
		return "WAIT"
	case LogDirective:
		return "LOG"
	default:
		return "DIRECTIVE(" + strconv.Itoa(int(k)) + ")"
	}
}

// Directive is a single parsed line of a controller script.
type Directive struct {
	Kind Kind

	// Target process, not used by WAIT.
	Target types.ProcessID

	// START applies to every client.
	All bool

	// Level for SPEED.
	Speed types.SpeedMode

	// Duration for WAIT.
	Wait time.Duration
}

// Parse a script line. Blank lines and comments starting with # are
// not directives, the returned flag is false for them.
func Parse(line string) (Directive, bool, error) {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Directive{}, false, nil
	}

	kind, ok := keywords[strings.ToUpper(fields[0])]
	if !ok {
		return Directive{}, false, types.NewError(types.ErrUnknownDirective, "%q", fields[0])
	}

	d := Directive{Kind: kind}
	args := fields[1:]
	switch kind {
	case WaitDirective:
		if len(args) != 1 {
			return d, false, types.NewError(types.ErrUnknownDirective, "WAIT requires a duration")
		}
		wait, err := time.ParseDuration(args[0])
		if err != nil || wait < 0 {
			return d, false, types.NewError(types.ErrUnknownDirective, "invalid duration %q", args[0])
		}
		d.Wait = wait
		return d, true, nil
	case SpeedDirective:
		if len(args) != 2 {
			return d, false, types.NewError(types.ErrUnknownDirective, "SPEED requires a target and a level")
		}
		speed, ok := types.ParseSpeedMode(strings.ToUpper(args[1]))
		if !ok {
			return d, false, types.NewError(types.ErrUnknownDirective, "invalid speed %q", args[1])
		}
		d.Speed = speed
	case StartDirective:
		if len(args) == 1 && strings.EqualFold(args[0], "all") {
			d.All = true
			return d, true, nil
		}
	}

	if len(args) < 1 {
		return d, false, types.NewError(types.ErrUnknownDirective, "%s requires a target", kind)
	}

	if kind != SpeedDirective && len(args) != 1 {
		return d, false, types.NewError(types.ErrUnknownDirective, "%s accepts a single target", kind)
	}

	target, err := strconv.Atoi(args[0])
	if err != nil {
		return d, false, types.NewError(types.ErrUnknownDirective, "invalid target %q", args[0])
	}
	d.Target = types.ProcessID(target)
	return d, true, nil
}
