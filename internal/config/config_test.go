package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.Server.GRPC.Address)
	assert.Equal(t, 100, cfg.Server.GRPC.MaxConcurrentStreams)
	assert.Equal(t, "/ws", cfg.Server.WebSocket.Path)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, game.DefaultRules(), cfg.Rules)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  grpc:
    address: "127.0.0.1:9000"
logging:
  level: debug
  format: json
database:
  driver: sqlite
  dsn: "file:games.db"
rules:
  power_to_win: 12
  opening_hand_size: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.GRPC.Address)
	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 12, cfg.Rules.PowerToWin)
	assert.Equal(t, 4, cfg.Rules.OpeningHandSize)
	assert.Equal(t, 8, cfg.Rules.ActionsPerRound)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WORLDBREAKERS_LOGGING_LEVEL", "warn")
	t.Setenv("WORLDBREAKERS_RULES_POWER_TO_WIN", "15")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 15, cfg.Rules.PowerToWin)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad level", "logging:\n  level: loud\n", "logging level"},
		{"bad driver", "database:\n  driver: mysql\n", "unsupported database driver"},
		{"postgres without dsn", "database:\n  driver: postgres\n", "dsn is required"},
		{"odd actions", "rules:\n  actions_per_round: 7\n", "even"},
		{"no replay dir", "replay:\n  enabled: true\n  dir: \"\"\n", "replay.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
