package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		mode  string
		level Level
		want  bool
	}{
		{ModeDisabled, LevelInfo, false},
		{ModeDisabled, LevelDebug, false},
		{ModeSimple, LevelInfo, true},
		{ModeSimple, LevelDebug, false},
		{ModeDebug, LevelInfo, true},
		{ModeDebug, LevelDebug, true},
		{"", LevelInfo, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Allowed(tt.mode, tt.level), "mode=%q level=%s", tt.mode, tt.level)
	}
}

func TestActivityLoggerRespectsMode(t *testing.T) {
	mode := ModeSimple
	activity, err := NewActivityLogger(t.TempDir(), func() string { return mode })
	require.NoError(t, err)
	t.Cleanup(func() { _ = activity.Close() })

	activity.Log("Connection Successful!", nil, LevelInfo)
	activity.Log("Request", "<RequestLogin/>", LevelDebug)

	mode = ModeDebug
	activity.Log("Response", []byte("<Response status=\"0\"/>\n"), LevelDebug)
	activity.Log("Lookup failed.", errors.New("timeout"), LevelInfo)

	mode = ModeDisabled
	activity.Log("ignored", nil, LevelInfo)

	lines, err := activity.Tail(0)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"message":"Connection Successful!"`)
	assert.Contains(t, lines[1], `"level":"debug"`)
	assert.Contains(t, lines[1], `<Response status=\"0\"/>`)
	assert.Contains(t, lines[2], `"data":"timeout"`)

	last, err := activity.Tail(1)
	require.NoError(t, err)
	assert.Equal(t, lines[2:], last)
}

func TestActivityLoggerClear(t *testing.T) {
	activity, err := NewActivityLogger(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = activity.Close() })

	for i := 0; i < 5; i++ {
		activity.Log("Entry skipped.", nil, LevelInfo)
	}
	require.NoError(t, activity.ClearLogs())

	lines, err := activity.Tail(10)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Log cleared.")

	activity.Log("Synced Successfully!", nil, LevelInfo)
	lines, err = activity.Tail(10)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestFormatData(t *testing.T) {
	assert.Equal(t, "raw", formatData("  raw \n"))
	assert.Equal(t, "bytes", formatData([]byte("bytes")))
	assert.Equal(t, `{"entry":3}`, formatData(map[string]int{"entry": 3}))
}
