package core

import (
	"os"

	"ircrelay/config"
	"ircrelay/internal/peer"
	"ircrelay/internal/session"
	"ircrelay/internal/transport"
	"ircrelay/util"
)

// Build constructs the session for cfg.  cfg is expected to have passed
// Validate.  The console is os.Stdin, peer traffic goes to os.Stdout and
// diagnostics to os.Stderr.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	ctl := &session.Controller{
		Host:     cfg.Host,
		Port:     cfg.Port,
		NoDNS:    cfg.NoDNS,
		Console:  os.Stdin,
		Display:  os.Stdout,
		Banner:   os.Stderr,
		Interval: cfg.PollInterval,
		Logger:   logger,
	}

	switch cfg.Mode() {
	case config.ModeProcess, config.ModePTY:
		ctl.Open = buildProcess(cfg, logger).Open
	default:
		// The gateway resolves the name on its side of the tunnel.
		ctl.SkipResolve = cfg.TunnelEnabled
		ctl.Open = buildSocket(cfg, logger).Open
	}
	return ctl, nil
}

// ── mode builders ────────────────────────────────────────────────────

func buildSocket(cfg *config.Config, logger *util.Logger) *SocketOpener {
	return &SocketOpener{
		NewDialer: func() transport.Dialer { return buildDialer(cfg, logger) },
		Logger:    logger,
	}
}

func buildProcess(cfg *config.Config, logger *util.Logger) *ProcessOpener {
	return &ProcessOpener{
		Config: peer.ProcessConfig{
			Program:     cfg.Exec,
			Args:        cfg.ExecArgs,
			InheritEnv:  cfg.InheritEnv,
			Env:         cfg.ExtraEnv,
			PTY:         cfg.PTY,
			Stderr:      os.Stderr,
			GracePeriod: cfg.GracePeriod,
		},
		Logger: logger,
	}
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(sshConfig(cfg), logger)
	}
	return &transport.TCPDialer{Timeout: cfg.Timeout}
}

func sshConfig(cfg *config.Config) *transport.SSHConfig {
	return &transport.SSHConfig{
		User:          cfg.TunnelUser,
		Host:          cfg.TunnelHost,
		Port:          cfg.TunnelPort,
		KeyPath:       cfg.SSHKeyPath,
		PromptPass:    cfg.SSHPassword,
		UseAgent:      cfg.UseSSHAgent,
		StrictHostKey: cfg.StrictHostKey,
		KnownHosts:    cfg.KnownHostsPath,
		Timeout:       cfg.Timeout,
	}
}
