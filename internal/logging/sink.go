package logging

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// CategoryField is the zerolog field carrying the log category (e.g. "GetToken").
const CategoryField = "category"

// Sink receives (category, message) pairs. It is the integration point for hosts
// that collect diagnostics in their own log view. Sinks must not fail the caller.
type Sink interface {
	WriteLog(category, message string)
}

var _ Sink = (*ZLogger)(nil)

// ZLogger forwards sink entries to zerolog.
type ZLogger struct {
	ZLog zerolog.Logger
}

func NewZLogger(zlog zerolog.Logger) ZLogger {
	return ZLogger{ZLog: zlog}
}

func (l ZLogger) WriteLog(category, message string) {
	l.ZLog.Info().Str(CategoryField, category).Msg(message)
}

var _ Sink = (*MultiSink)(nil)

type MultiSink struct {
	Sinks []Sink
}

func NewMultiSink(sinks ...Sink) MultiSink {
	return MultiSink{Sinks: sinks}
}

func (m MultiSink) WriteLog(category, message string) {
	for _, s := range m.Sinks {
		s.WriteLog(category, message)
	}
}

// Entry is a single record kept by MemorySink.
type Entry struct {
	Category string
	Message  string
}

var _ Sink = (*MemorySink)(nil)

// MemorySink stores entries, e.g. for a UI log pane or tests.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) WriteLog(category, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Category: category, Message: message})
}

func (m *MemorySink) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// SinkWriter adapts a Sink to the io.Writer zerolog writes JSON events to, so a
// zerolog.Logger can feed a Sink. Every Write reports success, even for events
// it cannot decode.
type SinkWriter struct {
	Sink Sink
}

func NewSinkWriter(sink Sink) SinkWriter {
	return SinkWriter{Sink: sink}
}

func (w SinkWriter) Write(p []byte) (int, error) {
	var event map[string]any
	if err := json.Unmarshal(p, &event); err != nil {
		w.Sink.WriteLog("", string(p))
		return len(p), nil
	}

	category, _ := event[CategoryField].(string)
	message, _ := event[zerolog.MessageFieldName].(string)
	w.Sink.WriteLog(category, message)
	return len(p), nil
}
