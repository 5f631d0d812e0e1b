package abrtsp

import (
	"fmt"
	"log/slog"
	"os"
)

// Logger receives diagnostics emitted by the server and client. It plays the
// role the teacher library gives to its ServerHandler.OnWarning /
// OnDecodeError hooks, generalized into a standalone sink so that components
// with no handler object (the framer, the packetizer) can still report.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type slogLogger struct {
	inner *slog.Logger
}

// NewLogger returns a Logger backed by log/slog, writing to stderr.
func NewLogger() Logger {
	return slogLogger{inner: slog.New(slog.NewTextHandler(os.Stderr, nil))}
}

func (l slogLogger) Debugf(format string, args ...interface{}) {
	l.inner.Debug(fmt.Sprintf(format, args...))
}

func (l slogLogger) Warnf(format string, args ...interface{}) {
	l.inner.Warn(fmt.Sprintf(format, args...))
}

func (l slogLogger) Errorf(format string, args ...interface{}) {
	l.inner.Error(fmt.Sprintf(format, args...))
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
