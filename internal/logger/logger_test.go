package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/derKlinke/buergeramt/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&config.Config{Environment: "production", LogLevel: "info"}, &buf)

	id := uuid.New()
	WithError(WithSession(log, id), errors.New("kaputt")).Info("turn processed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "turn processed", entry["msg"])
	assert.Equal(t, id.String(), entry["session_id"])
	assert.Equal(t, "kaputt", entry["error"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(&config.Config{Environment: "development", LogLevel: "warn"}, &buf)

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestOpenSessionLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	cfg := &config.Config{LogDir: dir, LogLevel: "info"}
	now := time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)

	log, f, err := OpenSessionLog(cfg, now)
	require.NoError(t, err)
	log.Info("game started")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(filepath.Join(dir, "game_session_20240301_140509.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "game started"))
}
