package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, DefaultListenAddr, cfg.Web.ListenAddr)
	assert.Equal(t, 5050, cfg.Web.ListenPort)
	assert.True(t, cfg.Web.AccessLog)
	assert.False(t, cfg.Web.Debug)
	assert.False(t, cfg.Web.SSL)
	assert.Equal(t, DefaultTrustedProxies, cfg.Web.TrustedProxies)
	assert.Equal(t, "127.0.0.1:5050", cfg.Web.Addr())
	assert.Equal(t, "http", cfg.Web.Protocol())
	require.NoError(t, cfg.Web.Validate())
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[web]
listen_port = 8080
debug = true
access_log = false
`)

	cfg := NewDefaultConfig()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, 8080, cfg.Web.ListenPort)
	assert.True(t, cfg.Web.Debug)
	assert.False(t, cfg.Web.AccessLog)
	assert.Equal(t, DefaultListenAddr, cfg.Web.ListenAddr, "absent keys keep defaults")
	assert.Equal(t, DefaultShutdownTimeout, cfg.Web.ShutdownTimeout)
}

func TestLoadFileMissingIsSkipped(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.LoadFile(filepath.Join(t.TempDir(), "nope.toml")))
	assert.Equal(t, DefaultListenPort, cfg.Web.ListenPort)
}

func TestLoadFileInvalidTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "[web\nlisten_port = ")
	cfg := NewDefaultConfig()
	assert.Error(t, cfg.LoadFile(path))
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvWebPort, "9090")
	t.Setenv(EnvWebAddr, "0.0.0.0")
	t.Setenv(EnvWebDebug, "true")
	t.Setenv(EnvAccessLog, "false")
	t.Setenv(EnvShutdownTimeout, "3s")
	t.Setenv(EnvTrustedProxies, " 10.1.1.1 , ,192.168.1.0/24")

	cfg := NewDefaultConfig()
	require.NoError(t, cfg.LoadEnv())

	assert.Equal(t, 9090, cfg.Web.ListenPort)
	assert.Equal(t, "0.0.0.0", cfg.Web.ListenAddr)
	assert.True(t, cfg.Web.Debug)
	assert.False(t, cfg.Web.AccessLog)
	assert.Equal(t, 3*time.Second, cfg.Web.ShutdownTimeoutDuration())
	assert.Equal(t, []string{"10.1.1.1", "192.168.1.0/24"}, cfg.Web.TrustedProxies)
}

func TestLoadEnvRejectsBadValues(t *testing.T) {
	t.Setenv(EnvWebPort, "fifty")
	assert.Error(t, NewDefaultConfig().LoadEnv())

	t.Setenv(EnvWebPort, "")
	t.Setenv(EnvWebSSL, "maybe")
	assert.Error(t, NewDefaultConfig().LoadEnv())
}

func TestLoadEnvFileStatErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadEnvFile(filepath.Join(dir, ".env")), "missing file is skipped")

	// a regular file used as a directory gives ENOTDIR, not ErrNotExist
	notDir := writeFile(t, dir, "plain", "")
	assert.Error(t, LoadEnvFile(filepath.Join(notDir, ".env")))
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	configFile := writeFile(t, dir, "config.toml", "[web]\nlisten_port = 6000\nlisten_addr = \"10.0.0.1\"\n")
	envFile := writeFile(t, dir, ".env", EnvWebPort+"=7000\n")

	// godotenv exports into the process environment; make sure it is cleaned up
	t.Setenv(EnvWebPort, "")
	require.NoError(t, os.Unsetenv(EnvWebPort))

	cfg, err := Load(configFile, envFile)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Web.ListenPort, "env file wins over config file")
	assert.Equal(t, "10.0.0.1", cfg.Web.ListenAddr, "config file wins over defaults")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(w *WebConfig)
		ok     bool
	}{
		{"defaults", func(w *WebConfig) {}, true},
		{"port too low", func(w *WebConfig) { w.ListenPort = 80 }, false},
		{"port too high", func(w *WebConfig) { w.ListenPort = 70000 }, false},
		{"ssl without files", func(w *WebConfig) { w.SSL = true }, false},
		{"ssl with files", func(w *WebConfig) { w.SSL, w.CertFile, w.KeyFile = true, "c.pem", "k.pem" }, true},
		{"bad timeout", func(w *WebConfig) { w.ShutdownTimeout = "soon" }, false},
		{"missing template dir", func(w *WebConfig) { w.TemplateDir = "/does/not/exist" }, false},
		{"existing static dir", func(w *WebConfig) { w.StaticDir = os.TempDir() }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(&cfg.Web)
			err := cfg.Web.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
