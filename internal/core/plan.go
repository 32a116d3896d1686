package core

import (
	"fmt"
	"strings"

	"ircrelay/config"
	"ircrelay/util"
)

// Describe renders what Build would do with cfg, for --dry-run.
func Describe(cfg *config.Config) string {
	var b strings.Builder
	row := func(k, format string, args ...interface{}) {
		fmt.Fprintf(&b, "%-10s %s\n", k+":", fmt.Sprintf(format, args...))
	}

	row("mode", "%s", cfg.Mode())
	row("target", "%s", util.FormatAddr(cfg.Host, cfg.Port))
	switch cfg.Mode() {
	case config.ModeProcess, config.ModePTY:
		argv := append([]string{cfg.Exec}, cfg.ExecArgs...)
		row("client", "%s <address> %d", strings.Join(argv, " "), cfg.Port)
		if !cfg.InheritEnv {
			row("env", "%d variable(s), parent environment dropped", len(cfg.ExtraEnv))
		} else if len(cfg.ExtraEnv) > 0 {
			row("env", "inherited + %s", strings.Join(cfg.ExtraEnv, " "))
		}
	default:
		if cfg.TunnelEnabled {
			gw := sshConfig(cfg)
			row("via", "ssh %s@%s:%d", orDash(gw.User), gw.Host, gw.Port)
		}
		if cfg.Timeout > 0 {
			row("timeout", "%v", cfg.Timeout)
		}
	}
	if cfg.NoDNS {
		row("dns", "disabled")
	}
	row("interval", "%v", cfg.PollInterval)
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
