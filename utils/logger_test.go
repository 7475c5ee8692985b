package utils

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&buf, zerolog.InfoLevel)

	l.Debug("hidden %d", 1)
	l.Info("[cleaner] kept %d rows", 7)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[cleaner] kept 7 rows")
	assert.False(t, l.DebugEnabled())
}

func TestLoggerDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&buf, zerolog.DebugLevel)

	l.Debug("[zolo] page %d", 3)

	assert.True(t, l.DebugEnabled())
	assert.Contains(t, buf.String(), "[zolo] page 3")
	assert.False(t, NewNopLogger().DebugEnabled())
}
