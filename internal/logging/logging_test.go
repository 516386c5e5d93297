package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_LevelFiltersConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", Console: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("shown", zap.String("node", "a"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "node")
}

func TestNew_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", JSON: true, Console: &buf})
	require.NoError(t, err)

	log.Debug("attempt recorded", zap.String("node", "a"))
	_ = log.Sync()
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "got %q", buf.String())
	assert.Contains(t, buf.String(), `"node":"a"`)
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "noobular.log")
	log, err := New(Options{Level: "warn", File: path, Console: &bytes.Buffer{}})
	require.NoError(t, err)

	log.Warn("decayed", zap.String("node", "b"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"decayed"`)
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
