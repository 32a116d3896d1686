package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	ncerr "ircrelay/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ircrelay.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
host = "irc.example.org"
port = 6697
poll_interval = "2ms"
timeout = "10s"
verbose = 2

[client]
program = "/usr/bin/telnet"
args = ["-8"]
pty = true
inherit_env = false
env = ["TERM=dumb"]
grace = "500ms"

[tunnel]
spec = "ops@bastion"
agent = true
`)
	cfg := Default()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Host != "irc.example.org" || cfg.Port != 6697 {
		t.Errorf("host/port = %q/%d", cfg.Host, cfg.Port)
	}
	if cfg.PollInterval != 2*time.Millisecond || cfg.Timeout != 10*time.Second {
		t.Errorf("durations = %v/%v", cfg.PollInterval, cfg.Timeout)
	}
	if cfg.Exec != "/usr/bin/telnet" || !cfg.PTY || cfg.InheritEnv {
		t.Errorf("client = %q pty=%v env=%v", cfg.Exec, cfg.PTY, cfg.InheritEnv)
	}
	if !reflect.DeepEqual(cfg.ExecArgs, []string{"-8"}) || !reflect.DeepEqual(cfg.ExtraEnv, []string{"TERM=dumb"}) {
		t.Errorf("args=%v env=%v", cfg.ExecArgs, cfg.ExtraEnv)
	}
	if cfg.TunnelSpec != "ops@bastion" || !cfg.UseSSHAgent {
		t.Errorf("tunnel = %q agent=%v", cfg.TunnelSpec, cfg.UseSSHAgent)
	}
	if cfg.Verbose != 2 {
		t.Errorf("verbose = %d", cfg.Verbose)
	}
	if cfg.GracePeriod != 500*time.Millisecond {
		t.Errorf("grace = %v", cfg.GracePeriod)
	}
}

func TestLoadFile_KeepsUndefined(t *testing.T) {
	path := writeConfig(t, `host = "irc.example.org"`)
	cfg := Default()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != DefaultPort || cfg.PollInterval != DefaultPollInterval || !cfg.InheritEnv {
		t.Errorf("defaults overwritten: %+v", cfg)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSub string
	}{
		{"unknown key", `hots = "typo"`, "unknown keys: hots"},
		{"bad duration", `poll_interval = "soon"`, "poll_interval"},
		{"syntax", `host = `, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := LoadFile(writeConfig(t, tt.body), Default())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"), Default()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IRCRELAY_HOST", "irc.example.net")
	t.Setenv("IRCRELAY_PORT", "7000")
	t.Setenv("IRCRELAY_EXEC", "telnet")
	t.Setenv("IRCRELAY_PTY", "yes")
	t.Setenv("IRCRELAY_NO_ENV", "1")
	t.Setenv("IRCRELAY_POLL_INTERVAL", "3ms")
	t.Setenv("IRCRELAY_TIMEOUT", "15")
	t.Setenv("IRCRELAY_VERBOSE", "3")

	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Host != "irc.example.net" || cfg.Port != 7000 {
		t.Errorf("host/port = %q/%d", cfg.Host, cfg.Port)
	}
	if cfg.Exec != "telnet" || !cfg.PTY || cfg.InheritEnv {
		t.Errorf("exec=%q pty=%v inherit=%v", cfg.Exec, cfg.PTY, cfg.InheritEnv)
	}
	if cfg.PollInterval != 3*time.Millisecond {
		t.Errorf("poll = %v", cfg.PollInterval)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
	if cfg.Verbose != 3 {
		t.Errorf("verbose = %d", cfg.Verbose)
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	for _, v := range []string{"1", "true", "yes", "TRUE", "Yes"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("IRCRELAY_NO_DNS", v)
			cfg := Default()
			LoadFromEnv(cfg)
			if !cfg.NoDNS {
				t.Errorf("IRCRELAY_NO_DNS=%s not honoured", v)
			}
		})
	}
}

func TestLoadFromEnv_IgnoresGarbage(t *testing.T) {
	t.Setenv("IRCRELAY_POLL_INTERVAL", "whenever")
	t.Setenv("IRCRELAY_VERBOSE", "loud")
	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.PollInterval != DefaultPollInterval || cfg.Verbose != 0 {
		t.Errorf("garbage env changed config: %+v", cfg)
	}
}

func TestLoadFromEnv_BadPort(t *testing.T) {
	for _, v := range []string{"abc", "0", "70000", "-1"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("IRCRELAY_PORT", v)
			cfg := Default()
			err := LoadFromEnv(cfg)
			if !errors.Is(err, ncerr.ErrInvalidPort) {
				t.Fatalf("LoadFromEnv() = %v, want ErrInvalidPort", err)
			}
			if cfg.Port != DefaultPort {
				t.Errorf("port changed to %d", cfg.Port)
			}
		})
	}
}
