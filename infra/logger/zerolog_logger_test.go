package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Infow("info", map[string]any{"k": "v"})
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLoggerTo(&buf, "planner", zerolog.InfoLevel)
	l.Debugw("hidden", map[string]any{"a": 1})
	l.Infow("schedule generated", map[string]any{"sites": 3})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "planner", entry["component"])
	assert.Equal(t, "schedule generated", entry["message"])
	assert.EqualValues(t, 3, entry["sites"])
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	assert.Equal(t, zerolog.WarnLevel, levelFromEnv())
	t.Setenv("LOG_LEVEL", "bogus")
	assert.Equal(t, zerolog.DebugLevel, levelFromEnv())
}
