package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap-engine/config"
)

const testServerTOML = `
port = 8080
host = "0.0.0.0"
allowed_origins = ["*"]
rate_per_minute = 120
max_concurrent_requests = 64
service_name = "spectra-swap-engine"
environment = "TEST"
registry_path = "/etc/swap-engine/registry.toml"
trade_api_url = "http://localhost:9000"
transfer_api_url = "http://localhost:9002"
price_api_url = "http://localhost:9001"
max_hops = 4
max_quote_paths = 16
cost_cutoff_multiplier = "3"
tie_break = "weight_then_time"
`

func TestLoadServerConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	assert.NoError(t, os.WriteFile(path, []byte(testServerTOML), 0o600))

	cfg, err := config.LoadServerConfig(&path)
	assert.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 4, cfg.MaxHops)
	assert.Equal(t, "weight_then_time", cfg.TieBreak)
	assert.Equal(t, "http://localhost:9000", cfg.TradeAPIURL)
}

func TestLoadServerConfigRejectsNonTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("port: 1"), 0o600))

	_, err := config.LoadServerConfig(&path)
	assert.Error(t, err)
}

func TestLoadServerConfigFromEnv(t *testing.T) {
	t.Setenv("SWAPENGINE_PORT", "9090")
	t.Setenv("SWAPENGINE_HOST", "127.0.0.1")
	t.Setenv("SWAPENGINE_ALLOWED_ORIGINS", "http://localhost:3000")
	t.Setenv("SWAPENGINE_REGISTRY_PATH", "/tmp/registry.toml")
	t.Setenv("SWAPENGINE_TRADE_API_URL", "http://localhost:9000")
	t.Setenv("SWAPENGINE_TRANSFER_API_URL", "http://localhost:9002")

	cfg, err := config.LoadServerConfig(nil)
	assert.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
}

func TestLoadServerConfigValidation(t *testing.T) {
	invalid := `
port = 0
host = "0.0.0.0"
allowed_origins = ["*"]
registry_path = "/tmp/registry.toml"
trade_api_url = "http://localhost:9000"
`
	path := filepath.Join(t.TempDir(), "server.toml")
	assert.NoError(t, os.WriteFile(path, []byte(invalid), 0o600))

	_, err := config.LoadServerConfig(&path)
	assert.Error(t, err)
}

func TestLoadServerConfigRejectsBadTieBreak(t *testing.T) {
	contents := strings.Replace(testServerTOML,
		`tie_break = "weight_then_time"`, `tie_break = "fastest"`, 1)
	path := filepath.Join(t.TempDir(), "server.toml")
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	_, err := config.LoadServerConfig(&path)
	assert.Error(t, err)
}
