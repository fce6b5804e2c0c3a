package logging

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Field holding the stack trace of a failed command. Only logged at debug level, see cmd.Execute.
const Stacktrace = "stacktrace"

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// WithStacktrace adds err to entry, together with the stack recorded by the first error in its chain that has one.
func WithStacktrace(entry *logrus.Entry, err error) *logrus.Entry {
	entry = entry.WithError(err)
	if stack := ExtractStack(err); stack != nil {
		entry = entry.WithField(Stacktrace, stack)
	}
	return entry
}

// ExtractStack returns the stack recorded by the first error in err's chain that has one, or nil. Query and
// argument errors are created without a stack; graph and manifest loading errors usually wrap one.
func ExtractStack(err error) errors.StackTrace {
	var tracer stackTracer
	if errors.As(err, &tracer) {
		return tracer.StackTrace()
	}
	return nil
}
