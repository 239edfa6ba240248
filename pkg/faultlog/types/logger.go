package types

// This interface will be created by the client, so its
// own logger can be provided. If none is provided the default
// logger backed by hclog will be used.
type Logger interface {
	// Utilities to log at info level.
	Info(v ...interface{})
	Infof(format string, v ...interface{})

	// Utilities to log at warn level.
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})

	// Utilities to log at error level.
	Error(v ...interface{})
	Errorf(format string, v ...interface{})

	// Utilities to log at debug level.
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	// Toggle debug on/off, returns the previous value.
	ToggleDebug(value bool) bool

	// Named returns a logger for a sub component.
	Named(name string) Logger
}
