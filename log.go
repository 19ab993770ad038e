package hsig

import goLog "log"

// Logger receives diagnostic messages from the signer: its entry into
// the fatal state (including fault-detected mismatches under
// FaultFatal) and failures to pin secret pages. Never used to log
// secret material.
type Logger interface {
	Logf(format string, a ...interface{})
}

type dummyLogger struct{}

func (l *dummyLogger) Logf(format string, a ...interface{}) {}

type stdlibLogger struct{}

func (l *stdlibLogger) Logf(format string, a ...interface{}) { goLog.Printf(format, a...) }

var log Logger = &dummyLogger{}

// EnableLogging sends diagnostic messages to the standard log package.
// For more flexibility, see SetLogger.
func EnableLogging() { SetLogger(&stdlibLogger{}) }

// SetLogger installs logger as the destination for diagnostic messages.
// Passing nil disables logging.
func SetLogger(logger Logger) {
	if logger == nil {
		log = &dummyLogger{}
		return
	}
	log = logger
}
