package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogAppendOrder(t *testing.T) {
	tick := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l := Log{now: func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}}

	l.Append("one")
	l.Append("two")

	lines := l.Lines()
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, "[09:00:01] one", lines[0].String())
	assert.Equal(t, "[09:00:02] two", lines[1].String())

	lines[0].Text = "changed"
	assert.Equal(t, "one", l.Lines()[0].Text)

	l.Reset()
	assert.Nil(t, l.Lines())
}
