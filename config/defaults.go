package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, the TOML file and environment variable loading.

const (
	// DefaultPort is the standard plaintext IRC port.
	DefaultPort = 6667

	// DefaultSSHPort is the standard SSH port for -T gateways.
	DefaultSSHPort = 22

	// DefaultClient is the line-protocol client spawned with --exec.
	DefaultClient = "telnet"

	// DefaultPollInterval bounds how long the relay sleeps in the
	// multiplexer with nothing to do, and therefore how quickly a stop
	// request is noticed.
	DefaultPollInterval = 5 * time.Millisecond

	// MaxPollInterval keeps shutdown responsive even when configured.
	MaxPollInterval = time.Second

	// DefaultConnTimeout is the TCP/SSH connect timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultGracePeriod is how long teardown waits for a spawned
	// client to exit after SIGTERM before killing it.
	DefaultGracePeriod = 2 * time.Second
)
