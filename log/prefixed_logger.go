/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

// PrefixedLogger prepends a fixed text to every message, e.g. "git: " for relayed command output.
type PrefixedLogger struct {
	delegate FieldLogger
	prefix   string
}

// NewPrefixedLogger returns a new PrefixedLogger instance.
func NewPrefixedLogger(delegate FieldLogger, prefix string) FieldLogger {
	return &PrefixedLogger{delegate, prefix}
}

// With returns a new logger with the given additional fields.
func (l *PrefixedLogger) With(fs ...Field) FieldLogger {
	return &PrefixedLogger{l.delegate.With(fs...), l.prefix}
}

// Debug logs a message at "debug" level.
func (l *PrefixedLogger) Debug(text string, fs ...Field) { l.delegate.Debug(l.prefix+text, fs...) }

// Info logs a message at "info" level.
func (l *PrefixedLogger) Info(text string, fs ...Field) { l.delegate.Info(l.prefix+text, fs...) }

// Warn logs a message at "warn" level.
func (l *PrefixedLogger) Warn(text string, fs ...Field) { l.delegate.Warn(l.prefix+text, fs...) }

// Error logs a message at "error" level.
func (l *PrefixedLogger) Error(text string, fs ...Field) { l.delegate.Error(l.prefix+text, fs...) }

// Debugf logs a formatted message at "debug" level.
func (l *PrefixedLogger) Debugf(format string, args ...interface{}) {
	l.delegate.Debugf(l.prefix+format, args...)
}

// Infof logs a formatted message at "info" level.
func (l *PrefixedLogger) Infof(format string, args ...interface{}) {
	l.delegate.Infof(l.prefix+format, args...)
}

// Warnf logs a formatted message at "warn" level.
func (l *PrefixedLogger) Warnf(format string, args ...interface{}) {
	l.delegate.Warnf(l.prefix+format, args...)
}

// Errorf logs a formatted message at "error" level.
func (l *PrefixedLogger) Errorf(format string, args ...interface{}) {
	l.delegate.Errorf(l.prefix+format, args...)
}

// AtLevel calls fn with a LogFunc that prepends the prefix, if the level is enabled.
func (l *PrefixedLogger) AtLevel(level Level, fn func(logFunc LogFunc)) {
	l.delegate.AtLevel(level, func(logFunc LogFunc) {
		fn(func(msg string, fs ...Field) { logFunc(l.prefix+msg, fs...) })
	})
}

// WithLevel returns a new logger with additional level check.
func (l *PrefixedLogger) WithLevel(level Level) FieldLogger {
	return &PrefixedLogger{l.delegate.WithLevel(level), l.prefix}
}

