package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domkit-go/domkit/internal/config"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8787, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8787", cfg.Addr())
	assert.Equal(t, "", cfg.Path())
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	yamlContent := "server:\n  host: \"0.0.0.0\"\n  port: 9090\nbench:\n  handlers: 10\n  events: 100\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(yamlContent), 0o644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Bench.Handlers)
	assert.NotEmpty(t, cfg.Path())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	yamlContent := "server:\n  port: 9090\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(yamlContent), 0o644))

	t.Setenv("DOMKITD_SERVER_PORT", "7000")
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port, "environment must win over the file")
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveBenchWorkload(t *testing.T) {
	cfg := config.Default()
	cfg.Bench.Handlers = 0
	assert.Error(t, cfg.Validate())
}
