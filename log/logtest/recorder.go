/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"sync"
	"time"

	"github.com/ssgreg/logf"

	"github.com/acronis/phrase-migrate/log"
)

// RecordedEntry represents recorded entry which was logged.
type RecordedEntry struct {
	LoggerName string
	Fields     []log.Field
	Level      log.Level
	Time       time.Time
	Text       string
}

// FindField tries to find field in logging entry by key.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	for i := range re.Fields {
		if re.Fields[i].Key == key {
			return &re.Fields[i], true
		}
	}
	return nil, false
}

type recordingEntryWriter struct {
	mu      sync.RWMutex
	entries []RecordedEntry
}

//nolint:gocritic
func (ew *recordingEntryWriter) WriteEntry(e logf.Entry) {
	fields := make([]log.Field, 0, len(e.Fields)+len(e.DerivedFields))
	fields = append(fields, e.Fields...)
	fields = append(fields, e.DerivedFields...)

	ew.mu.Lock()
	defer ew.mu.Unlock()
	ew.entries = append(ew.entries, RecordedEntry{
		LoggerName: e.LoggerName,
		Fields:     fields,
		Level:      convertLogfLevelToLevel(e.Level),
		Time:       e.Time,
		Text:       e.Text,
	})
}

// Recorder is an implementation of log.FieldLogger that
// records all logged entries for later inspection in tests.
type Recorder struct {
	*log.LogfAdapter
	entryWriter *recordingEntryWriter
}

// NewRecorder returns an initialized Recorder.
func NewRecorder() *Recorder {
	ew := &recordingEntryWriter{}
	return &Recorder{&log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, ew)}, ew}
}

// With returns a new Recorder with the given additional fields.
func (r *Recorder) With(fs ...log.Field) log.FieldLogger {
	return &Recorder{r.LogfAdapter.With(fs...).(*log.LogfAdapter), r.entryWriter}
}

// WithLevel returns a new Recorder with the given additional level check.
func (r *Recorder) WithLevel(level log.Level) log.FieldLogger {
	return &Recorder{r.LogfAdapter.WithLevel(level).(*log.LogfAdapter), r.entryWriter}
}

// Entries returns all recorded logging entries.
func (r *Recorder) Entries() []RecordedEntry {
	r.entryWriter.mu.RLock()
	defer r.entryWriter.mu.RUnlock()
	return append([]RecordedEntry(nil), r.entryWriter.entries...)
}

// FindEntry tries to find recorded logging entry by message.
func (r *Recorder) FindEntry(msg string) (RecordedEntry, bool) {
	entries := r.FindAllEntriesByFilter(func(entry RecordedEntry) bool { return entry.Text == msg })
	if len(entries) == 0 {
		return RecordedEntry{}, false
	}
	return entries[0], true
}

// FindAllEntriesByFilter returns all recorded logging entries accepted by the filter.
func (r *Recorder) FindAllEntriesByFilter(filter func(entry RecordedEntry) bool) []RecordedEntry {
	r.entryWriter.mu.RLock()
	defer r.entryWriter.mu.RUnlock()
	var found []RecordedEntry
	for _, entry := range r.entryWriter.entries {
		if filter(entry) {
			found = append(found, entry)
		}
	}
	return found
}

// FindAllEntriesByLevel returns all recorded logging entries of the given level.
func (r *Recorder) FindAllEntriesByLevel(level log.Level) []RecordedEntry {
	return r.FindAllEntriesByFilter(func(entry RecordedEntry) bool { return entry.Level == level })
}

// Reset resets all recorded logs.
func (r *Recorder) Reset() {
	r.entryWriter.mu.Lock()
	r.entryWriter.entries = nil
	r.entryWriter.mu.Unlock()
}

func convertLogfLevelToLevel(value logf.Level) log.Level {
	switch value {
	case logf.LevelError:
		return log.LevelError
	case logf.LevelWarn:
		return log.LevelWarn
	case logf.LevelDebug:
		return log.LevelDebug
	default:
		return log.LevelInfo
	}
}
