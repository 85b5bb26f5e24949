package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "certtrack.db", cfg.Database.Path)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "certtrack.yaml")
	data := []byte(`
addr: ":9090"
database:
  path: /data/ims.db
uploads:
  dir: /data/uploads
  max_bytes: 1048576
session:
  ttl: 30m
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/data/ims.db", cfg.Database.Path)
	assert.Equal(t, int64(1048576), cfg.MaxUploadBytes())
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CERTTRACK_ADDR", ":7000")
	t.Setenv("CERTTRACK_DB", "/tmp/override.db")
	t.Setenv("CERTTRACK_SESSION_TTL", "1h")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.SessionTTL())
}

func TestBadDurationsFallBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.TTL = "not-a-duration"
	cfg.Server.ReadTimeout = "-5s"
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())
}
