// Package config defines the runtime configuration for ircrelay and
// provides helpers for parsing ports and tunnel specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ncerr "ircrelay/internal/errors"
)

// Peer modes, selected from the configuration by [Config.Mode].
const (
	ModeSocket  = "socket"
	ModeProcess = "process"
	ModePTY     = "pty"
)

// Config holds every tuneable for a single relay session.
type Config struct {
	// ── Peer ─────────────────────────────────────────────────────────
	Host    string
	Port    int
	NoDNS   bool
	Timeout time.Duration

	// ── Spawned client ───────────────────────────────────────────────
	Exec       string   // client program; empty selects socket mode
	ExecArgs   []string // extra arguments placed before host and port
	PTY        bool     // run the client on a pseudo-terminal
	InheritEnv bool
	ExtraEnv   []string // KEY=VALUE pairs appended to the environment

	// ── Relay ────────────────────────────────────────────────────────
	PollInterval time.Duration
	GracePeriod  time.Duration

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		Timeout:      DefaultConnTimeout,
		InheritEnv:   true,
		PollInterval: DefaultPollInterval,
		GracePeriod:  DefaultGracePeriod,
	}
}

// Mode reports how the peer is reached.
func (c *Config) Mode() string {
	switch {
	case c.Exec != "" && c.PTY:
		return ModePTY
	case c.Exec != "":
		return ModeProcess
	default:
		return ModeSocket
	}
}

// ── Port helpers ─────────────────────────────────────────────────────

// ParsePort accepts a decimal port in [1, 65535].
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(spec))
	if err != nil || port < 1 || port > 65535 {
		return 0, ncerr.InvalidPort(spec)
	}
	return port, nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:@]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q, expected [user@]host[:port]", spec)
	}
	user, host, port = m[1], m[2], DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ApplyTunnelSpec parses TunnelSpec into the Tunnel* fields.
func (c *Config) ApplyTunnelSpec() error {
	if c.TunnelSpec == "" {
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return &ncerr.ArgumentError{Field: "tunnel", Value: c.TunnelSpec, Message: err.Error()}
	}
	c.TunnelEnabled = true
	c.TunnelUser, c.TunnelHost, c.TunnelPort = user, host, port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Every failure is an [ncerr.ArgumentError].
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return ncerr.MissingHost()
	}
	if c.Port < 1 || c.Port > 65535 {
		return ncerr.InvalidPort(strconv.Itoa(c.Port))
	}
	if c.PollInterval <= 0 || c.PollInterval > MaxPollInterval {
		return &ncerr.ArgumentError{
			Field:   "poll-interval",
			Value:   c.PollInterval,
			Message: fmt.Sprintf("must be in (0, %s]", MaxPollInterval),
		}
	}
	if c.Timeout < 0 {
		return &ncerr.ArgumentError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}
	if c.PTY && c.Exec == "" {
		return &ncerr.ArgumentError{Field: "pty", Message: "requires --exec"}
	}
	if c.Exec != "" && c.TunnelEnabled {
		return &ncerr.ArgumentError{Field: "tunnel", Value: c.TunnelSpec, Message: "cannot be combined with --exec"}
	}
	if c.TunnelEnabled && c.TunnelHost == "" {
		return &ncerr.ArgumentError{Field: "tunnel", Message: "tunnel host is required"}
	}
	for _, kv := range c.ExtraEnv {
		if !strings.Contains(kv, "=") {
			return &ncerr.ArgumentError{Field: "env", Value: kv, Message: "expected KEY=VALUE"}
		}
	}
	return nil
}
