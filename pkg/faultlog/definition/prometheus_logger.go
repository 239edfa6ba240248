package definition

import (
	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
	"github.com/prometheus/common/log"
)

// PrometheusLogger implements the Logger interface using the
// prometheus logger, so the level and format can be configured
// through the command line flags registered by log.AddFlags.
type PrometheusLogger struct {
	log log.Logger

	// Level configured before debug was toggled on.
	level string

	debug bool
}

// NewPrometheusLogger adapts the given prometheus logger, usually log.Base().
func NewPrometheusLogger(logger log.Logger) types.Logger {
	return &PrometheusLogger{log: logger, level: "info"}
}

func (p *PrometheusLogger) Info(v ...interface{}) {
	p.log.Info(v...)
}

func (p *PrometheusLogger) Infof(format string, v ...interface{}) {
	p.log.Infof(format, v...)
}

func (p *PrometheusLogger) Warn(v ...interface{}) {
	p.log.Warn(v...)
}

func (p *PrometheusLogger) Warnf(format string, v ...interface{}) {
	p.log.Warnf(format, v...)
}

func (p *PrometheusLogger) Error(v ...interface{}) {
	p.log.Error(v...)
}

func (p *PrometheusLogger) Errorf(format string, v ...interface{}) {
	p.log.Errorf(format, v...)
}

func (p *PrometheusLogger) Debug(v ...interface{}) {
	p.log.Debug(v...)
}

func (p *PrometheusLogger) Debugf(format string, v ...interface{}) {
	p.log.Debugf(format, v...)
}

func (p *PrometheusLogger) ToggleDebug(value bool) bool {
	previous := p.debug
	level := p.level
	if value {
		level = "debug"
	}
	if err := p.log.SetLevel(level); err != nil {
		p.log.Warnf("failed changing level to %s. %v", level, err)
		return previous
	}
	p.debug = value
	return previous
}

func (p *PrometheusLogger) Named(name string) types.Logger {
	return &PrometheusLogger{
		log:   p.log.With("component", name),
		level: p.level,
		debug: p.debug,
	}
}
