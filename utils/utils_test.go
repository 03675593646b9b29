package utils

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogOutput(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(discard{})

	LogInfo("listening on %v", ":18000")
	LogWarn("slow %d", 3)
	LogErro("failed: %v", errors.New("boom"))
	Logger().Infow("structured", "conn", "abc")
	require.NoError(t, SyncLog())

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "listening on :18000")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "failed: boom")
	assert.Contains(t, out, `"conn": "abc"`)
}

func TestColorPrint(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(discard{})

	SetColorPrint(true)
	defer SetColorPrint(false)
	LogInfo("colored")
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestMust(t *testing.T) {
	assert.Equal(t, 3, Must(3, nil))
	assert.Panics(t, func() { Must(0, errors.New("bad")) })
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
