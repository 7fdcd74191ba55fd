package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("GAME_SERVICE_TOKEN", "secret")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("BACKUP_INTERVAL", "")
	t.Setenv("R2_BUCKET_NAME", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "5200", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "wildlife-user-profile", cfg.Storage.KeyPrefix)
	assert.Equal(t, 30*time.Minute, cfg.Backup.Interval)
	assert.False(t, cfg.Backup.Enabled())
	assert.False(t, cfg.Progress.StrictAchievements)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("GAME_SERVICE_TOKEN", "secret")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , https://b.example ,")
	t.Setenv("STRICT_ACHIEVEMENTS", "true")
	t.Setenv("BACKUP_INTERVAL", "5m")
	t.Setenv("R2_BUCKET_NAME", "backups")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Progress.StrictAchievements)
	assert.Equal(t, 5*time.Minute, cfg.Backup.Interval)
	assert.True(t, cfg.Backup.Enabled())
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{"GAME_SERVICE_TOKEN": ""}},
		{"unknown driver", map[string]string{"GAME_SERVICE_TOKEN": "x", "STORAGE_DRIVER": "mongo"}},
		{"postgres without url", map[string]string{"GAME_SERVICE_TOKEN": "x", "STORAGE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{"bad interval", map[string]string{"GAME_SERVICE_TOKEN": "x", "BACKUP_INTERVAL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORAGE_DRIVER", "")
			t.Setenv("BACKUP_INTERVAL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
