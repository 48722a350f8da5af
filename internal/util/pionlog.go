package util

import (
	"fmt"

	"github.com/pion/logging"
	"github.com/pterm/pterm"
)

// PionLoggerFactory routes pion's internal logging into the pterm logger,
// tagged with the pion scope (ice, dtls, sctp, ...). pion's info chatter is
// demoted to debug so a normal run only shows warnings and errors.
type PionLoggerFactory struct{}

var _ logging.LoggerFactory = PionLoggerFactory{}

func (PionLoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &pionLogger{scope: scope}
}

type pionLogger struct {
	scope string
}

func (l *pionLogger) args() []pterm.LoggerArgument {
	return pterm.DefaultLogger.Args("scope", l.scope)
}

func (l *pionLogger) Trace(msg string) { pterm.DefaultLogger.Trace(msg, l.args()) }
func (l *pionLogger) Tracef(format string, args ...interface{}) {
	l.Trace(fmt.Sprintf(format, args...))
}

func (l *pionLogger) Debug(msg string) { pterm.DefaultLogger.Debug(msg, l.args()) }
func (l *pionLogger) Debugf(format string, args ...interface{}) {
	l.Debug(fmt.Sprintf(format, args...))
}

func (l *pionLogger) Info(msg string) { pterm.DefaultLogger.Debug(msg, l.args()) }
func (l *pionLogger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *pionLogger) Warn(msg string) { pterm.DefaultLogger.Warn(msg, l.args()) }
func (l *pionLogger) Warnf(format string, args ...interface{}) {
	l.Warn(fmt.Sprintf(format, args...))
}

func (l *pionLogger) Error(msg string) { pterm.DefaultLogger.Error(msg, l.args()) }
func (l *pionLogger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}
