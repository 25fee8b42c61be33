package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerOutput(t *testing.T) {
	t.Run("info line carries tool name and message", func(t *testing.T) {
		var buf bytes.Buffer
		l := New("spanstrap", "test")
		l.SetOutput(&buf)

		l.Infof("applied batch %d", 2)

		out := buf.String()
		assert.Contains(t, out, "spanstrap")
		assert.Contains(t, out, "INFO")
		assert.Contains(t, out, "applied batch 2")
	})

	t.Run("variadic args format the message", func(t *testing.T) {
		var buf bytes.Buffer
		l := New("spanstrap", "test")
		l.SetOutput(&buf)

		l.Warn("found %d tables", 5)

		assert.Contains(t, buf.String(), "found 5 tables")
	})

	t.Run("long tool names are truncated", func(t *testing.T) {
		name := formatToolName("a-very-long-tool-name")
		assert.Len(t, []rune(name), ToolNameWidth)
	})
}
