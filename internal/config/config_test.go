package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REDIS_ADDR", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, int64(10*1024*1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 2, cfg.Pipeline.ToolAttempts)
	assert.False(t, cfg.Pipeline.CancelOnDisconnect)
}

func TestLoadFileAndEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
server:
  port: 9090
  api_keys: ["k1"]
inference:
  model: anthropic/claude-3.5-haiku
  timeout: 45s
pipeline:
  cancel_on_disconnect: true
  step_delay: 250ms
database:
  driver: postgres
  host: db
  port: 5432
  user: legal
  password: from-file
  name: legalyze
`), 0o600))

	t.Setenv("OPEN_ROUTER_KEY", "sk-or-test")
	t.Setenv("DATABASE_PASSWORD", "p@ss word")
	t.Setenv("PORT", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"k1"}, cfg.Server.APIKeys)
	assert.Equal(t, "anthropic/claude-3.5-haiku", cfg.Inference.Model)
	assert.Equal(t, 45*time.Second, cfg.Inference.Timeout)
	assert.Equal(t, 3, cfg.Inference.MaxRetries, "unset keys keep defaults")
	assert.True(t, cfg.Pipeline.CancelOnDisconnect)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.StepDelay)
	assert.Equal(t, "sk-or-test", cfg.Inference.APIKey)
	assert.Equal(t, "p@ss word", cfg.Database.Password)
	assert.Equal(t, "postgres://legal:p%40ss%20word@db:5432/legalyze?sslmode=disable", cfg.PostgresDSN())
}

func TestRedisAddrEnvSwitchesBackend(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PORT", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, "localhost:6379", cfg.Session.Redis.Addr)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Session.Backend = "etcd"
	cfg.Database.Driver = "oracle"
	cfg.Server.Port = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.backend")
	assert.Contains(t, err.Error(), "database.driver")
	assert.Contains(t, err.Error(), "server.port")
}

func TestMySQLDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.User, cfg.Database.Password = "root", "secret"
	cfg.Database.Host, cfg.Database.Port, cfg.Database.Name = "localhost", 3306, "legalyze"
	assert.Equal(t, "root:secret@tcp(localhost:3306)/legalyze?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestExampleConfigLoads(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REDIS_ADDR", "")
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.Redis.TTL)
	assert.Empty(t, cfg.Database.Driver)
}
