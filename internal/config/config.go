// Package config provides configuration management for go-liftlog.
package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

var AppVersion = "-unset-" // will be set at build time

const (
	AppName = "LiftLog"

	// Default web settings
	DefaultListenAddr      = "127.0.0.1"
	DefaultListenPort      = 5050
	DefaultShutdownTimeout = "10s"

	// Default files, both optional
	DefaultConfigFile = "config.toml"
	DefaultEnvFile    = ".env"
)

// Environment overrides, applied after the config file
const (
	EnvWebAddr         = "LIFTLOG_WEB_ADDR"
	EnvWebPort         = "LIFTLOG_WEB_PORT"
	EnvWebDebug        = "LIFTLOG_WEB_DEBUG"
	EnvWebSSL          = "LIFTLOG_WEB_SSL"
	EnvWebCertFile     = "LIFTLOG_WEB_CERT_FILE"
	EnvWebKeyFile      = "LIFTLOG_WEB_KEY_FILE"
	EnvTemplateDir     = "LIFTLOG_TEMPLATE_DIR"
	EnvStaticDir       = "LIFTLOG_STATIC_DIR"
	EnvAccessLog       = "LIFTLOG_ACCESS_LOG"
	EnvShutdownTimeout = "LIFTLOG_SHUTDOWN_TIMEOUT"
	EnvTrustedProxies  = "LIFTLOG_TRUSTED_PROXIES"
)

// MainConfig holds the main configuration for go-liftlog
type MainConfig struct {
	// Web interface settings
	Web WebConfig `toml:"web"`
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenAddr      string   `toml:"listen_addr"`
	ListenPort      int      `toml:"listen_port"`
	SSL             bool     `toml:"ssl"`
	CertFile        string   `toml:"cert_file"`
	KeyFile         string   `toml:"key_file"`
	StaticDir       string   `toml:"static_dir"`   // empty: serve embedded assets
	TemplateDir     string   `toml:"template_dir"` // empty: use embedded templates
	Debug           bool     `toml:"debug"`        // gin debug mode and template reloading
	AccessLog       bool     `toml:"access_log"`
	ShutdownTimeout string   `toml:"shutdown_timeout"`
	TrustedProxies  []string `toml:"trusted_proxies"`
}

// DefaultTrustedProxies covers common reverse proxy setups (nginx on the same host or a private network)
var DefaultTrustedProxies = []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	return &MainConfig{
		Web: WebConfig{
			ListenAddr:      DefaultListenAddr,
			ListenPort:      DefaultListenPort,
			AccessLog:       true,
			ShutdownTimeout: DefaultShutdownTimeout,
			TrustedProxies:  append([]string(nil), DefaultTrustedProxies...),
		},
	}
}

// Load builds the configuration from defaults, the TOML file at configFile,
// the dotenv file at envFile and finally the process environment.
// Missing files are skipped.
func Load(configFile, envFile string) (*MainConfig, error) {
	cfg := NewDefaultConfig()
	if err := cfg.LoadFile(configFile); err != nil {
		return nil, err
	}
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes a TOML file over the current values.
// Keys absent from the file keep their current value.
func (c *MainConfig) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[CONFIG]: No config file at %s, using defaults", path)
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	log.Printf("[CONFIG]: Loaded config file %s", path)
	return nil
}

// LoadEnvFile exports the variables of a dotenv file into the process
// environment. Variables that are already set are not overwritten.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	log.Printf("[CONFIG]: Loaded env file %s", path)
	return nil
}

// LoadEnv applies LIFTLOG_* environment overrides.
func (c *MainConfig) LoadEnv() error {
	w := &c.Web
	if v := os.Getenv(EnvWebAddr); v != "" {
		w.ListenAddr = v
	}
	if v := os.Getenv(EnvWebPort); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", EnvWebPort, v, err)
		}
		w.ListenPort = p
	}
	for env, dst := range map[string]*bool{
		EnvWebDebug:  &w.Debug,
		EnvWebSSL:    &w.SSL,
		EnvAccessLog: &w.AccessLog,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", env, v, err)
		}
		*dst = b
	}
	if v := os.Getenv(EnvWebCertFile); v != "" {
		w.CertFile = v
	}
	if v := os.Getenv(EnvWebKeyFile); v != "" {
		w.KeyFile = v
	}
	if v := os.Getenv(EnvTemplateDir); v != "" {
		w.TemplateDir = v
	}
	if v := os.Getenv(EnvStaticDir); v != "" {
		w.StaticDir = v
	}
	if v := os.Getenv(EnvShutdownTimeout); v != "" {
		w.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvTrustedProxies); v != "" {
		proxies := strings.Split(v, ",")
		w.TrustedProxies = make([]string, 0, len(proxies))
		for _, p := range proxies {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				w.TrustedProxies = append(w.TrustedProxies, trimmed)
			}
		}
	}
	return nil
}

// Validate checks the web configuration for values the server cannot start with
func (w *WebConfig) Validate() error {
	if w.ListenPort < 1024 || w.ListenPort > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1024 and 65535)", w.ListenPort)
	}
	if w.SSL && (w.CertFile == "" || w.KeyFile == "") {
		return errors.New("SSL enabled but cert_file or key_file not specified in config")
	}
	if _, err := time.ParseDuration(w.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	for _, dir := range []string{w.TemplateDir, w.StaticDir} {
		if dir == "" {
			continue
		}
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return fmt.Errorf("directory not found: %s", dir)
		}
	}
	return nil
}

// Addr returns the host:port the web server listens on
func (w *WebConfig) Addr() string {
	return net.JoinHostPort(w.ListenAddr, strconv.Itoa(w.ListenPort))
}

// ShutdownTimeoutDuration parses the shutdown timeout, falling back to the default
func (w *WebConfig) ShutdownTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(w.ShutdownTimeout); err == nil {
		return d
	}
	d, _ := time.ParseDuration(DefaultShutdownTimeout)
	return d
}

// Protocol returns "https" when SSL is enabled and "http" otherwise
func (w *WebConfig) Protocol() string {
	if w.SSL {
		return "https"
	}
	return "http"
}
