package engine

import "time"

// Event categories.
const (
	CatBirth       = "birth"
	CatDeath       = "death"
	CatMarriage    = "marriage"
	CatProtest     = "protest"
	CatEconomic    = "economic"
	CatWarning     = "warning"
	CatPolicy      = "policy"
	CatDevelopment = "development"
	CatEvent       = "event"
	CatSystem      = "system"
)

// Event is a notable occurrence in the city.
type Event struct {
	Seq         uint64         `json:"seq"`
	Tick        uint64         `json:"tick"`
	Time        time.Time      `json:"time"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// EventLog is a capped, append-only feed. The simulation writes to it and
// never reads it back for decisions.
type EventLog struct {
	buf  []Event
	head int // Index of the oldest entry once full
	seq  uint64
}

// NewEventLog creates a feed holding at most capacity entries.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventLog{buf: make([]Event, 0, capacity)}
}

// Append stores e, evicting the oldest entry when full, and returns its sequence number.
func (l *EventLog) Append(e Event) uint64 {
	l.seq++
	e.Seq = l.seq
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	if len(l.buf) < cap(l.buf) {
		l.buf = append(l.buf, e)
		return e.Seq
	}
	l.buf[l.head] = e
	l.head = (l.head + 1) % len(l.buf)
	return e.Seq
}

// Recent returns up to n entries, newest first.
func (l *EventLog) Recent(n int) []Event {
	if n <= 0 || n > len(l.buf) {
		n = len(l.buf)
	}
	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		idx := (l.head + len(l.buf) - 1 - i) % len(l.buf)
		out = append(out, l.buf[idx])
	}
	return out
}

// Since returns retained entries with Seq > seq, oldest first.
func (l *EventLog) Since(seq uint64) []Event {
	var out []Event
	for i := 0; i < len(l.buf); i++ {
		e := l.buf[(l.head+i)%len(l.buf)]
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Len is the number of retained entries.
func (l *EventLog) Len() int { return len(l.buf) }

// LastSeq is the sequence number of the newest entry ever appended.
func (l *EventLog) LastSeq() uint64 { return l.seq }
