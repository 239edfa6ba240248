package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// Harness is what the session drives, usually a whole cluster.
type Harness interface {
	Crash(id types.ProcessID) error

	Recover(id types.ProcessID) error

	Speed(id types.ProcessID, mode types.SpeedMode) error

	Start(id types.ProcessID) error

	StartAll() error

	// Log returns the in-memory log of a replica.
	Log(id types.ProcessID) ([]string, error)
}

// Session feeds directives to the harness, writing the
// results to the output.
type Session struct {
	harness Harness

	out io.Writer

	log types.Logger
}

func NewSession(harness Harness, out io.Writer, log types.Logger) *Session {
	return &Session{
		harness: harness,
		out:     out,
		log:     log,
	}
}

// Run reads directives from the input until it ends or the context
// is done. A bad line is reported and the session continues.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	number := 0
	for scanner.Scan() {
		number++
		if err := ctx.Err(); err != nil {
			return err
		}

		directive, ok, err := Parse(scanner.Text())
		if err != nil {
			fmt.Fprintf(s.out, "line %d: %v\n", number, err)
			continue
		}

		if !ok {
			continue
		}

		if err := s.Execute(ctx, directive); err != nil {
			fmt.Fprintf(s.out, "line %d: %v\n", number, err)
		}
	}
	return scanner.Err()
}

// Execute a single directive.
func (s *Session) Execute(ctx context.Context, directive Directive) error {
	s.log.Debugf("executing %s %d", directive.Kind, directive.Target)
	switch directive.Kind {
	case CrashDirective:
		return s.harness.Crash(directive.Target)
	case RecoveryDirective:
		return s.harness.Recover(directive.Target)
	case SpeedDirective:
		return s.harness.Speed(directive.Target, directive.Speed)
	case StartDirective:
		if directive.All {
			return s.harness.StartAll()
		}
		return s.harness.Start(directive.Target)
	case WaitDirective:
		return wait(ctx, directive.Wait)
	case LogDirective:
		log, err := s.harness.Log(directive.Target)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "replica %d: %d entries\n", directive.Target, len(log))
		for _, line := range log {
			fmt.Fprintln(s.out, line)
		}
		return nil
	default:
		return types.NewError(types.ErrUnknownDirective, "%s", directive.Kind)
	}
}

func wait(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
