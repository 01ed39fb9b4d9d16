package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLevels(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(&buf, false)
	slog.Debug("hidden")
	slog.Info("shown", "path", "a.js")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "path=a.js")
	assert.NotContains(t, out, "\x1b[")

	buf.Reset()
	Setup(&buf, true)
	slog.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}
