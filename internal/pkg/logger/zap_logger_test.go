package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.log")
	l := NewIsolatedLogger(path)

	l.Info("Hub", "Client registered", map[string]interface{}{"project_id": "p1"})
	l.Error("Hub", "Broadcast failed", map[string]interface{}{"error": errors.New("closed")})
	l.Debug("Hub", "below file level", nil)
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "Client registered", first["message"])
	assert.Equal(t, "Hub", first["module"])
	assert.NotEmpty(t, first["timestamp"])

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "ERROR", second["level"])
	assert.Equal(t, "closed", second["error"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("x", "y", nil)
	l.Warn("x", "y", nil)
	assert.NoError(t, l.Sync())
}
