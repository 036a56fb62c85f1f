package record

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Context is the explicit capability bag every session-opening call in this
// module takes, replacing the Carbon C source's global error slots and
// console-output toggle with logging passed through explicitly instead of
// held globally. A Context with a nil Logger behaves as a silent logger
// rather than panicking, swallowing non-fatal write errors rather than
// making every caller handle a missing collaborator.
type Context struct {
	Logger *logrus.Logger
}

// NewContext returns a Context wrapping logger, or a Context with a
// discarding logger if logger is nil.
func NewContext(logger *logrus.Logger) *Context {
	if logger == nil {
		logger = silentLogger()
	}
	return &Context{Logger: logger}
}

// Background returns a Context whose logger discards all output, for
// callers that don't care to observe the engine (tests, one-shot builds).
func Background() *Context {
	return &Context{Logger: silentLogger()}
}

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (c *Context) log() *logrus.Logger {
	if c == nil || c.Logger == nil {
		return silentLogger()
	}
	return c.Logger
}
