/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ssgreg/logf"

	"github.com/acronis/phrase-migrate/log"
)

type entryWriter struct {
	mu      sync.Mutex
	encoder logf.Encoder
	output  io.Writer
}

//nolint:gocritic
func (ew *entryWriter) WriteEntry(e logf.Entry) {
	ew.mu.Lock()
	defer ew.mu.Unlock()

	var buf logf.Buffer
	if err := ew.encoder.Encode(&buf, e); err != nil {
		_, _ = fmt.Fprint(ew.output, err)
		return
	}
	_, _ = ew.output.Write(buf.Data)
}

// NewLogger returns a synchronous JSON logger at debug level that writes to stderr.
// It is slow and is meant for tests only.
func NewLogger() log.FieldLogger {
	return NewLoggerWithOpts(LoggerOpts{})
}

// LoggerOpts allows to set custom options for test logger such as messages output target.
type LoggerOpts struct {
	// Output is os.Stderr when nil.
	Output io.Writer
}

// NewLoggerWithOpts returns a test logger configured according to opts.
func NewLoggerWithOpts(opts LoggerOpts) log.FieldLogger {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	ew := &entryWriter{
		encoder: logf.NewJSONEncoder(logf.JSONEncoderConfig{
			EncodeTime:   logf.RFC3339NanoTimeEncoder,
			FieldKeyTime: "time",
		}),
		output: output,
	}
	return &log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, ew)}
}
