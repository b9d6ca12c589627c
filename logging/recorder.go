package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Record is one captured log entry.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// Recorder is a slog.Handler that keeps records in memory so tests can assert
// on what the layout engine reported, e.g. forced overflow warnings.
//
//	rec := logging.NewRecorder(slog.LevelDebug)
//	cfg, _ := layout.NewConfigBuilder().Logger(slog.New(rec)).Build()
//	...
//	if rec.Count(slog.LevelWarn) != 1 { ... }
type Recorder struct {
	level  slog.Leveler
	state  *recorderState
	attrs  map[string]string // keys already carry the group prefix in effect at WithAttrs time
	groups []string
}

type recorderState struct {
	mu      sync.Mutex
	records []Record
}

// NewRecorder captures records at or above level. A nil level captures everything.
func NewRecorder(level slog.Leveler) *Recorder {
	return &Recorder{level: level, state: &recorderState{}}
}

func (r *Recorder) Enabled(_ context.Context, level slog.Level) bool {
	if r.level == nil {
		return true
	}
	return level >= r.level.Level()
}

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	entry := Record{Level: rec.Level, Message: rec.Message, Attrs: map[string]string{}}
	for k, v := range r.attrs {
		entry.Attrs[k] = v
	}
	rec.Attrs(func(a slog.Attr) bool {
		entry.Attrs[r.key(a.Key)] = a.Value.String()
		return true
	})
	r.state.mu.Lock()
	r.state.records = append(r.state.records, entry)
	r.state.mu.Unlock()
	return nil
}

func (r *Recorder) key(k string) string {
	if len(r.groups) == 0 {
		return k
	}
	return strings.Join(r.groups, ".") + "." + k
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *r
	cp.attrs = make(map[string]string, len(r.attrs)+len(attrs))
	for k, v := range r.attrs {
		cp.attrs[k] = v
	}
	for _, a := range attrs {
		cp.attrs[r.key(a.Key)] = a.Value.String()
	}
	return &cp
}

func (r *Recorder) WithGroup(name string) slog.Handler {
	if name == "" {
		return r
	}
	cp := *r
	cp.groups = append(append([]string(nil), r.groups...), name)
	return &cp
}

// Records returns a copy of everything captured so far.
func (r *Recorder) Records() []Record {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return append([]Record(nil), r.state.records...)
}

// Count returns how many captured records have exactly the given level.
func (r *Recorder) Count(level slog.Level) int {
	n := 0
	for _, rec := range r.Records() {
		if rec.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether any captured message contains s.
func (r *Recorder) Contains(s string) bool {
	for _, rec := range r.Records() {
		if strings.Contains(rec.Message, s) {
			return true
		}
	}
	return false
}

// Reset drops all captured records.
func (r *Recorder) Reset() {
	r.state.mu.Lock()
	r.state.records = nil
	r.state.mu.Unlock()
}
