package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Sink receives every record the engine produces, in emission order.
// Write must either persist the whole record or return an error; partial writes are
// never acceptable because the record log is the simulation's audit trail.
type Sink interface {
	Write(fields map[string]any, human string) error
	Close() error
}

// Emit hands r to sink.
func Emit(sink Sink, r Record) error {
	return sink.Write(r.Fields(), r.Human())
}

// Entry is one record as a sink received it.
type Entry struct {
	Fields map[string]any
	Human  string
}

// MemorySink keeps every record in memory. Used by tests and by Summarize.
type MemorySink struct {
	Entries []Entry
}

// NewMemorySink creates a MemorySink ready for recording.
func NewMemorySink() *MemorySink {
	return &MemorySink{Entries: make([]Entry, 0)}
}

func (m *MemorySink) Write(fields map[string]any, human string) error {
	m.Entries = append(m.Entries, Entry{Fields: fields, Human: human})
	return nil
}

func (m *MemorySink) Close() error { return nil }

// OfType returns the entries whose FieldType equals typ.
func (m *MemorySink) OfType(typ string) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Fields[FieldType] == typ {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all recorded entries.
func (m *MemorySink) Reset() { m.Entries = m.Entries[:0] }

// maxWriteAttempts bounds consecutive writes that make no progress.
const maxWriteAttempts = 3

// JSONLSink writes one JSON object per record: {"fields":{...},"message":"..."}.
// Map keys are emitted sorted, so identical runs produce identical bytes.
type JSONLSink struct {
	w io.Writer
}

// NewJSONLSink wraps w. Closing the sink closes w if it is an io.Closer.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{w: w}
}

func (s *JSONLSink) Write(fields map[string]any, human string) error {
	line, err := json.Marshal(struct {
		Fields  map[string]any `json:"fields"`
		Message string         `json:"message"`
	}{Fields: fields, Message: human})
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	return writeFull(s.w, append(line, '\n'))
}

func (s *JSONLSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// writeFull retries until every byte is written. It gives up after maxWriteAttempts
// consecutive attempts that write nothing.
func writeFull(w io.Writer, b []byte) error {
	stalled := 0
	for len(b) > 0 {
		n, err := w.Write(b)
		b = b[n:]
		if n > 0 {
			stalled = 0
			continue
		}
		if err == nil {
			err = io.ErrShortWrite
		}
		stalled++
		if stalled >= maxWriteAttempts {
			return fmt.Errorf("writing record: %d bytes left after %d attempts: %w", len(b), stalled, err)
		}
	}
	return nil
}

// LogrusSink forwards records to a logrus logger as structured entries.
type LogrusSink struct {
	logger *logrus.Logger
	level  logrus.Level
}

// NewLogrusSink logs every record at level through logger.
func NewLogrusSink(logger *logrus.Logger, level logrus.Level) *LogrusSink {
	return &LogrusSink{logger: logger, level: level}
}

func (s *LogrusSink) Write(fields map[string]any, human string) error {
	s.logger.WithFields(logrus.Fields(fields)).Log(s.level, human)
	return nil
}

func (s *LogrusSink) Close() error { return nil }

// MultiSink fans a record out to several sinks in order and stops at the first error.
type MultiSink []Sink

func (m MultiSink) Write(fields map[string]any, human string) error {
	for _, s := range m {
		if err := s.Write(fields, human); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
