package session

import (
	"time"
)

// LogLine is one timestamped entry of the run log.
type LogLine struct {
	Time time.Time
	Text string
}

// String formats the line as "[15:04:05] text".
func (l LogLine) String() string {
	return "[" + l.Time.Format("15:04:05") + "] " + l.Text
}

// Log is an append-only list of log lines.
type Log struct {
	lines []LogLine
	now   func() time.Time
}

// Append adds a line stamped with the current time.
func (l *Log) Append(text string) {
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	l.lines = append(l.lines, LogLine{Time: now(), Text: text})
}

// Lines returns a copy of the lines in insertion order.
func (l *Log) Lines() []LogLine {
	if len(l.lines) == 0 {
		return nil
	}
	out := make([]LogLine, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len returns the number of lines.
func (l *Log) Len() int {
	return len(l.lines)
}

// Reset removes all lines.
func (l *Log) Reset() {
	l.lines = nil
}
