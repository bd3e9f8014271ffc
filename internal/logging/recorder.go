package logging

import (
	"context"
	"sync"
)

// Entry is a single event captured by Recorder.
type Entry struct {
	Level string
	Msg   string
	Attrs map[string]any
}

// Recorder is an in-memory Logger that keeps every entry. It is meant for
// tests that assert on emitted diagnostic events.
type Recorder struct {
	mu      *sync.Mutex
	entries *[]Entry
	base    []any
}

func NewRecorder() *Recorder {
	return &Recorder{mu: &sync.Mutex{}, entries: &[]Entry{}}
}

func (r *Recorder) Debug(_ context.Context, msg string, args ...any) { r.add("DEBUG", msg, args) }
func (r *Recorder) Info(_ context.Context, msg string, args ...any)  { r.add("INFO", msg, args) }
func (r *Recorder) Warn(_ context.Context, msg string, args ...any)  { r.add("WARN", msg, args) }
func (r *Recorder) Error(_ context.Context, msg string, args ...any) { r.add("ERROR", msg, args) }

// With returns a Recorder sharing the same entry buffer.
func (r *Recorder) With(args ...any) Logger {
	base := append(append([]any{}, r.base...), args...)
	return &Recorder{mu: r.mu, entries: r.entries, base: base}
}

func (r *Recorder) add(level, msg string, args []any) {
	all := append(append([]any{}, r.base...), args...)
	attrs := make(map[string]any, len(all)/2)
	for i := 0; i+1 < len(all); i += 2 {
		if k, ok := all[i].(string); ok {
			attrs[k] = all[i+1]
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, Entry{Level: level, Msg: msg, Attrs: attrs})
}

// Entries returns a copy of everything logged so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(*r.entries))
	copy(out, *r.entries)
	return out
}

// Find returns the first entry with the given message.
func (r *Recorder) Find(msg string) (Entry, bool) {
	for _, e := range r.Entries() {
		if e.Msg == msg {
			return e, true
		}
	}
	return Entry{}, false
}
