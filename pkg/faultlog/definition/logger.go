package definition

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// NewDefaultLogger creates the logger used when the user does not
// provide its own implementation, writing to the standard error.
func NewDefaultLogger() types.Logger {
	return NewLogger(hclog.New(&hclog.LoggerOptions{
		Name:   "faultlog",
		Level:  hclog.Info,
		Output: os.Stderr,
	}))
}

// NewLogger adapts the given hclog logger.
func NewLogger(logger hclog.Logger) types.Logger {
	return &DefaultLogger{log: logger}
}

// DefaultLogger implements the Logger interface on top of hclog.
type DefaultLogger struct {
	log hclog.Logger
}

func (l *DefaultLogger) Info(v ...interface{}) {
	l.log.Info(fmt.Sprint(v...))
}

func (l *DefaultLogger) Infof(format string, v ...interface{}) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l *DefaultLogger) Warn(v ...interface{}) {
	l.log.Warn(fmt.Sprint(v...))
}

func (l *DefaultLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, v...))
}

func (l *DefaultLogger) Error(v ...interface{}) {
	l.log.Error(fmt.Sprint(v...))
}

func (l *DefaultLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func (l *DefaultLogger) Debug(v ...interface{}) {
	l.log.Debug(fmt.Sprint(v...))
}

func (l *DefaultLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

// The level is shared by every logger created with Named.
func (l *DefaultLogger) ToggleDebug(value bool) bool {
	previous := l.log.IsDebug()
	if value {
		l.log.SetLevel(hclog.Debug)
	} else {
		l.log.SetLevel(hclog.Info)
	}
	return previous
}

func (l *DefaultLogger) Named(name string) types.Logger {
	return &DefaultLogger{log: l.log.Named(name)}
}
