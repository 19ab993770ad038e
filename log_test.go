package hsig

import "testing"

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Logf(format string, a ...interface{}) {
	l.lines = append(l.lines, format)
}

func TestSetLoggerReceivesMessages(t *testing.T) {
	rec := &recordingLogger{}
	SetLogger(rec)
	defer SetLogger(nil)

	log.Logf("hello %d", 1)
	if len(rec.lines) != 1 {
		t.Fatalf("expected one logged line, got %d", len(rec.lines))
	}
}

func TestSetLoggerNilInstallsDummy(t *testing.T) {
	SetLogger(nil)
	if _, ok := log.(*dummyLogger); !ok {
		t.Fatalf("SetLogger(nil) must install the dummy logger")
	}
	// Must not panic even though dummyLogger discards everything.
	log.Logf("discarded")
}
