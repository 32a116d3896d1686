package config

// loader.go - configuration loading from a TOML file and the environment.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables
//   3. TOML file given with --config
//   4. Defaults   (defaults.go)

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ── TOML file ────────────────────────────────────────────────────────

type fileConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	NoDNS        bool   `toml:"no_dns"`
	Timeout      string `toml:"timeout"`
	PollInterval string `toml:"poll_interval"`
	Verbose      int    `toml:"verbose"`

	Client struct {
		Program    string   `toml:"program"`
		Args       []string `toml:"args"`
		PTY        bool     `toml:"pty"`
		InheritEnv bool     `toml:"inherit_env"`
		Env        []string `toml:"env"`
		Grace      string   `toml:"grace"`
	} `toml:"client"`

	Tunnel struct {
		Spec          string `toml:"spec"`
		Key           string `toml:"key"`
		Agent         bool   `toml:"agent"`
		Password      bool   `toml:"password"`
		StrictHostKey bool   `toml:"strict_host_key"`
		KnownHosts    string `toml:"known_hosts"`
	} `toml:"tunnel"`
}

// LoadFile overlays the keys defined in the TOML file at path onto cfg.
// Keys absent from the file leave cfg untouched; unknown keys are an
// error so typos do not go unnoticed.
func LoadFile(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("no_dns") {
		cfg.NoDNS = raw.NoDNS
	}
	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("config %s: timeout: %w", path, err)
		}
		cfg.Timeout = d
	}
	if meta.IsDefined("poll_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollInterval))
		if err != nil {
			return fmt.Errorf("config %s: poll_interval: %w", path, err)
		}
		cfg.PollInterval = d
	}

	if meta.IsDefined("client", "program") {
		cfg.Exec = raw.Client.Program
	}
	if meta.IsDefined("client", "args") {
		cfg.ExecArgs = raw.Client.Args
	}
	if meta.IsDefined("client", "pty") {
		cfg.PTY = raw.Client.PTY
	}
	if meta.IsDefined("client", "inherit_env") {
		cfg.InheritEnv = raw.Client.InheritEnv
	}
	if meta.IsDefined("client", "env") {
		cfg.ExtraEnv = raw.Client.Env
	}
	if meta.IsDefined("client", "grace") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Client.Grace))
		if err != nil {
			return fmt.Errorf("config %s: client.grace: %w", path, err)
		}
		cfg.GracePeriod = d
	}

	if meta.IsDefined("tunnel", "spec") {
		cfg.TunnelSpec = raw.Tunnel.Spec
	}
	if meta.IsDefined("tunnel", "key") {
		cfg.SSHKeyPath = raw.Tunnel.Key
	}
	if meta.IsDefined("tunnel", "agent") {
		cfg.UseSSHAgent = raw.Tunnel.Agent
	}
	if meta.IsDefined("tunnel", "password") {
		cfg.SSHPassword = raw.Tunnel.Password
	}
	if meta.IsDefined("tunnel", "strict_host_key") {
		cfg.StrictHostKey = raw.Tunnel.StrictHostKey
	}
	if meta.IsDefined("tunnel", "known_hosts") {
		cfg.KnownHostsPath = raw.Tunnel.KnownHosts
	}
	return nil
}

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the IRCRELAY_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  A malformed IRCRELAY_PORT is
// rejected like a malformed port argument.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("IRCRELAY_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("IRCRELAY_PORT"); v != "" {
		port, err := ParsePort(v)
		if err != nil {
			return err
		}
		cfg.Port = port
	}
	if envBool("IRCRELAY_NO_DNS") {
		cfg.NoDNS = true
	}
	if v := envDuration("IRCRELAY_TIMEOUT"); v > 0 {
		cfg.Timeout = v
	}
	if v := envDuration("IRCRELAY_POLL_INTERVAL"); v > 0 {
		cfg.PollInterval = v
	}

	// Spawned client
	if v := os.Getenv("IRCRELAY_EXEC"); v != "" {
		cfg.Exec = v
	}
	if envBool("IRCRELAY_PTY") {
		cfg.PTY = true
	}
	if envBool("IRCRELAY_NO_ENV") {
		cfg.InheritEnv = false
	}

	// SSH tunnel
	if v := os.Getenv("IRCRELAY_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("IRCRELAY_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("IRCRELAY_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("IRCRELAY_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("IRCRELAY_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := envInt("IRCRELAY_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

// envDuration accepts Go durations ("250ms") or whole seconds ("30").
func envDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
