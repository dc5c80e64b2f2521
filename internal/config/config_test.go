package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	yml := `
server:
  rest_port: 9090
grid:
  default_size: 32
  allowed_sizes: [8, 32]
storage:
  backend: Badger
  badger_path: /tmp/grid
eventbus:
  url: nats://localhost:4222
  retention_hours: 2
logging:
  console_level: debug
  components:
    sync: trace
client:
  timeout_seconds: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.GetRESTPort())
	assert.Equal(t, 32, cfg.Grid.GetDefaultSize())
	assert.Equal(t, []int{8, 32}, cfg.Grid.GetAllowedSizes())
	assert.Equal(t, "badger", cfg.Storage.GetBackend())
	assert.Equal(t, "/tmp/grid", cfg.Storage.GetBadgerPath())
	assert.Equal(t, "nats://localhost:4222", cfg.EventBus.GetURL())
	assert.Equal(t, 2*time.Hour, cfg.EventBus.GetRetention())
	assert.Equal(t, "debug", cfg.Logging.GetConsoleLevel())
	assert.Equal(t, map[string]string{"sync": "trace"}, cfg.Logging.Components)
	assert.Equal(t, 3*time.Second, cfg.Client.GetTimeout())
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.GetRESTPort())
	assert.Equal(t, 16, cfg.Grid.GetDefaultSize())
	assert.Equal(t, []int{8, 16, 32, 64}, cfg.Grid.GetAllowedSizes())
	assert.Equal(t, "memory", cfg.Storage.GetBackend())
	assert.Equal(t, "", cfg.EventBus.GetURL())
	assert.Equal(t, "projects", cfg.Storage.GetProjectsDir())
}

func TestGetters_EnvFallback(t *testing.T) {
	t.Setenv("VOXEL_REST_PORT", "7000")
	t.Setenv("VOXEL_ALLOWED_SIZES", "4, 12,x")
	t.Setenv("VOXEL_STORAGE", "REDIS")

	var cfg Config
	assert.Equal(t, 7000, cfg.Server.GetRESTPort())
	assert.Equal(t, []int{4, 12}, cfg.Grid.GetAllowedSizes())
	assert.Equal(t, "redis", cfg.Storage.GetBackend())

	// Значение из конфига важнее окружения
	cfg.Server.RESTPort = 9000
	assert.Equal(t, 9000, cfg.Server.GetRESTPort())

	t.Setenv("VOXEL_REST_PORT", "abc")
	cfg.Server.RESTPort = 0
	assert.Equal(t, 8080, cfg.Server.GetRESTPort())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [1, 2"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}
