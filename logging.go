package models

import "github.com/sirupsen/logrus"

// logrusLogger adapts a logrus.Logger to the Logger interface.
type logrusLogger struct {
	l *logrus.Logger
}

// NewLogrusLogger wraps a logrus logger for use with WithLogger.
func NewLogrusLogger(l *logrus.Logger) Logger {
	return &logrusLogger{l: l}
}

func (ll *logrusLogger) Debug(msg string, keysAndValues ...any) {
	ll.l.WithFields(fields(keysAndValues)).Debug(msg)
}

func (ll *logrusLogger) Info(msg string, keysAndValues ...any) {
	ll.l.WithFields(fields(keysAndValues)).Info(msg)
}

func (ll *logrusLogger) Warn(msg string, keysAndValues ...any) {
	ll.l.WithFields(fields(keysAndValues)).Warn(msg)
}

func (ll *logrusLogger) Error(msg string, keysAndValues ...any) {
	ll.l.WithFields(fields(keysAndValues)).Error(msg)
}

// fields converts alternating key-value pairs into logrus fields.
// A trailing key without a value is ignored.
func fields(keysAndValues []any) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		f[key] = keysAndValues[i+1]
	}
	return f
}
