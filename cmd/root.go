// Package cmd wires up the CLI flags and hands the resulting
// configuration to the session builder.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"ircrelay/config"
	"ircrelay/internal/core"
	ncerr "ircrelay/internal/errors"
	"ircrelay/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X ircrelay/cmd.version=1.1.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Output streams for usage, version and --dry-run; tests replace them.
var (
	stdout io.Writer = os.Stdout //nolint:gochecknoglobals
	stderr io.Writer = os.Stderr //nolint:gochecknoglobals
)

// Execute parses args and runs one relay session.  The returned error
// maps onto the process exit status through errors.ExitCode.
func Execute(ctx context.Context, args []string) error {
	flagged := config.Default()
	fs := flag.NewFlagSet("ircrelay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// ── peer ─────────────────────────────────────────────────────
	fs.BoolVarP(&flagged.NoDNS, "no-dns", "n", false, "Numeric-only, no DNS resolution")

	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Connect timeout in seconds (0 disables)")

	// ── spawned client ───────────────────────────────────────────
	fs.StringVarP(&flagged.Exec, "exec", "e", "", "Reach the server through a client `program` (default "+config.DefaultClient+")")
	fs.Lookup("exec").NoOptDefVal = config.DefaultClient
	fs.StringArrayVar(&flagged.ExecArgs, "arg", nil, "Extra client argument placed before host and port (repeatable)")
	fs.BoolVar(&flagged.PTY, "pty", false, "Run the client on a pseudo-terminal (with --exec)")
	var noEnv bool
	fs.BoolVar(&noEnv, "no-env", false, "Do not pass the parent environment to the client")
	fs.StringArrayVar(&flagged.ExtraEnv, "env", nil, "Add KEY=VALUE to the client environment (repeatable)")
	fs.DurationVar(&flagged.GracePeriod, "grace", config.DefaultGracePeriod, "How long to wait for the client to exit")

	// ── relay ────────────────────────────────────────────────────
	fs.DurationVar(&flagged.PollInterval, "poll-interval", config.DefaultPollInterval, "Readiness wait timeout")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&flagged.TunnelSpec, "tunnel", "T", "", "Connect through SSH gateway [user@]host[:port]")
	fs.StringVar(&flagged.SSHKeyPath, "ssh-key", "", "SSH private key file")
	fs.BoolVar(&flagged.SSHPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&flagged.UseSSHAgent, "ssh-agent", false, "Use SSH agent")
	fs.BoolVar(&flagged.StrictHostKey, "strict-hostkey", false, "Verify SSH host keys")
	fs.StringVar(&flagged.KnownHostsPath, "known-hosts", "", "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&flagged.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var (
		configPath          string
		dryRun, showVersion bool
		showHelp            bool
	)
	fs.StringVar(&configPath, "config", "", "Read settings from a TOML `file`")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate and print the plan without connecting")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		printUsage(fs)
		return err
	}
	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "ircrelay %s\n", version)
		return nil
	}
	if noEnv {
		flagged.InheritEnv = false
	}
	// -w 0 turns the connect timeout off.
	flagged.Timeout = time.Duration(timeoutSec) * time.Second

	cfg, err := load(fs, flagged, configPath)
	if err != nil {
		if ncerr.IsArgument(err) {
			printUsage(fs)
		}
		return err
	}

	// ── positional arguments, tunnel spec, validation ────────────
	err = parsePositional(cfg, fs.Args())
	if err == nil {
		err = cfg.ApplyTunnelSpec()
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		if ncerr.IsArgument(err) {
			printUsage(fs)
		}
		return err
	}

	if dryRun {
		fmt.Fprint(stdout, core.Describe(cfg))
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// flagFields copies a flag's value from the parsed set onto the merged
// configuration.  Only flags given on the command line are copied, so
// they win over the file and the environment without erasing them.
var flagFields = map[string]func(dst, src *config.Config){ //nolint:gochecknoglobals
	"no-dns":         func(d, s *config.Config) { d.NoDNS = s.NoDNS },
	"timeout":        func(d, s *config.Config) { d.Timeout = s.Timeout },
	"exec":           func(d, s *config.Config) { d.Exec = s.Exec },
	"arg":            func(d, s *config.Config) { d.ExecArgs = s.ExecArgs },
	"pty":            func(d, s *config.Config) { d.PTY = s.PTY },
	"no-env":         func(d, s *config.Config) { d.InheritEnv = s.InheritEnv },
	"env":            func(d, s *config.Config) { d.ExtraEnv = append(d.ExtraEnv, s.ExtraEnv...) },
	"grace":          func(d, s *config.Config) { d.GracePeriod = s.GracePeriod },
	"poll-interval":  func(d, s *config.Config) { d.PollInterval = s.PollInterval },
	"tunnel":         func(d, s *config.Config) { d.TunnelSpec = s.TunnelSpec },
	"ssh-key":        func(d, s *config.Config) { d.SSHKeyPath = s.SSHKeyPath },
	"ssh-password":   func(d, s *config.Config) { d.SSHPassword = s.SSHPassword },
	"ssh-agent":      func(d, s *config.Config) { d.UseSSHAgent = s.UseSSHAgent },
	"strict-hostkey": func(d, s *config.Config) { d.StrictHostKey = s.StrictHostKey },
	"known-hosts":    func(d, s *config.Config) { d.KnownHostsPath = s.KnownHostsPath },
	"verbose":        func(d, s *config.Config) { d.Verbose = s.Verbose },
}

// load merges defaults, the TOML file, the environment and the flags
// that were set, in increasing order of precedence.
func load(fs *flag.FlagSet, flagged *config.Config, configPath string) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		if err := config.LoadFile(configPath, cfg); err != nil {
			return nil, err
		}
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if apply, ok := flagFields[f.Name]; ok {
			apply(cfg, flagged)
		}
	})
	return cfg, nil
}

// parsePositional handles "<host> [port]".  A host from the file or
// the environment is used when none is given.
func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
	case 1, 2:
		cfg.Host = remaining[0]
	default:
		return &ncerr.ArgumentError{
			Field:   "arguments",
			Value:   remaining[2],
			Message: "unexpected extra argument",
		}
	}
	if len(remaining) == 2 {
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return err
		}
		cfg.Port = port
	}
	return nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(stderr, `ircrelay v%s

Relays your terminal to an IRC server and answers its PING
keep-alives so an idle session is not dropped.

Usage:
  ircrelay [options] <host> [port]               Connect (port defaults to %d)
  ircrelay -e [options] <host> [port]            Connect through %s
  ircrelay -T user@gateway <host> [port]         Connect through an SSH gateway

Options:
`, version, config.DefaultPort, config.DefaultClient)
	fmt.Fprint(stderr, fs.FlagUsages())
	fmt.Fprintf(stderr, `
Examples:
  ircrelay irc.libera.chat                       Direct connection
  ircrelay --exec=telnet --pty irc.libera.chat   Via telnet on a pty
  ircrelay -T admin@bastion irc.internal 6697    Via SSH gateway
  ircrelay --dry-run -vv irc.libera.chat 6667    Show the plan only
`)
}
