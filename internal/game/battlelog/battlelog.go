// Package battlelog carries the presentation-facing stream of resolved
// combat events. Every resolved effect emits one Entry.
package battlelog

import (
	"fmt"

	"go.uber.org/zap"
)

// Category routes an entry to a presentation style.
type Category int

const (
	Text Category = iota
	Damage
	Heal
	Buff
	Mana
)

// String returns the category label used by presenters.
func (c Category) String() string {
	switch c {
	case Damage:
		return "damage"
	case Heal:
		return "heal"
	case Buff:
		return "buff"
	case Mana:
		return "mana"
	default:
		return "text"
	}
}

// Entry is one line of the battle log.
type Entry struct {
	Message  string
	Category Category
}

// Sink receives battle log entries. Implementations must not call back into
// the engine.
type Sink interface {
	Emit(e Entry)
}

// Emitf formats and emits a single entry. A nil sink discards the entry.
func Emitf(s Sink, cat Category, format string, args ...any) {
	if s == nil {
		return
	}
	s.Emit(Entry{Message: fmt.Sprintf(format, args...), Category: cat})
}

// Log is an in-memory Sink that keeps every entry in emission order and
// optionally mirrors each one to a zap logger at debug level.
type Log struct {
	entries []Entry
	logger  *zap.Logger
}

// NewLog creates an empty Log. logger may be nil.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

// Emit appends e.
func (l *Log) Emit(e Entry) {
	l.entries = append(l.entries, e)
	if l.logger != nil {
		l.logger.Debug("battle log",
			zap.String("category", e.Category.String()),
			zap.String("message", e.Message),
		)
	}
}

// Entries returns a copy of all entries emitted so far.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns the entries emitted after the first n, so a presenter can
// drain incrementally.
func (l *Log) Since(n int) []Entry {
	if n >= len(l.entries) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	out := make([]Entry, len(l.entries)-n)
	copy(out, l.entries[n:])
	return out
}

// Len returns the number of entries emitted so far.
func (l *Log) Len() int { return len(l.entries) }

// Discard is a Sink that drops every entry.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Entry) {}
