package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ircrelay/config"
	ncerr "ircrelay/internal/errors"
)

// capture redirects the package output streams for one test.
func capture(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr := stdout, stderr
	stdout, stderr = out, errOut
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return out, errOut
}

// clearEnv keeps the caller's IRCRELAY_* settings out of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "IRCRELAY_") {
			t.Setenv(k, "")
		}
	}
}

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	out, _ := capture(t)
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "ircrelay ") {
		t.Errorf("version output %q", out.String())
	}
}

// TestExecute_Help verifies --help prints usage and succeeds.
func TestExecute_Help(t *testing.T) {
	_, errOut := capture(t)
	if err := Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(errOut.String(), "Usage:") || !strings.Contains(errOut.String(), "--poll-interval") {
		t.Errorf("usage output:\n%s", errOut.String())
	}
}

// TestExecute_ArgumentErrors verifies each argument failure maps to its
// exit status and prints usage.
func TestExecute_ArgumentErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no args", nil, ncerr.ExitNoHost},
		{"flags only", []string{"-v"}, ncerr.ExitNoHost},
		{"port too big", []string{"irc.example.org", "70000"}, ncerr.ExitBadPort},
		{"port zero", []string{"irc.example.org", "0"}, ncerr.ExitBadPort},
		{"port not a number", []string{"irc.example.org", "ircd"}, ncerr.ExitBadPort},
		{"extra argument", []string{"irc.example.org", "6667", "x"}, ncerr.ExitUsage},
		{"pty without exec", []string{"--pty", "irc.example.org"}, ncerr.ExitUsage},
		{"exec with tunnel", []string{"-e", "-T", "gw", "irc.example.org"}, ncerr.ExitUsage},
		{"bad interval", []string{"--poll-interval", "0s", "irc.example.org"}, ncerr.ExitUsage},
		{"bad env", []string{"-e", "--env", "NOEQUALS", "irc.example.org"}, ncerr.ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut := capture(t)
			err := Execute(context.Background(), append(tt.args, "--dry-run"))
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := ncerr.ExitCode(err); got != tt.code {
				t.Errorf("exit code = %d (%v), want %d", got, err, tt.code)
			}
			if !strings.Contains(errOut.String(), "Usage:") {
				t.Error("usage not printed")
			}
		})
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--nonexistent-flag", "host"},
		{"-w", "abc", "host"},
	} {
		t.Run(args[0], func(t *testing.T) {
			_, errOut := capture(t)
			err := Execute(context.Background(), args)
			if err == nil {
				t.Fatal("expected error for bad flag")
			}
			if ncerr.ExitCode(err) != ncerr.ExitUsage {
				t.Errorf("exit code = %d", ncerr.ExitCode(err))
			}
			if !strings.Contains(errOut.String(), "Usage:") {
				t.Error("usage not printed")
			}
		})
	}
}

// TestExecute_Timeout verifies -w sets the connect timeout and -w 0
// disables it.
func TestExecute_Timeout(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		args []string
		want string
		gone bool
	}{
		{[]string{"irc.example.org"}, "timeout:   30s", false},
		{[]string{"-w", "5", "irc.example.org"}, "timeout:   5s", false},
		{[]string{"-w", "0", "irc.example.org"}, "timeout:", true},
	}
	for _, tt := range tests {
		out, _ := capture(t)
		if err := Execute(context.Background(), append(tt.args, "--dry-run")); err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if got := strings.Contains(out.String(), tt.want); got == tt.gone {
			t.Errorf("%v: plan containing %q = %v:\n%s", tt.args, tt.want, got, out.String())
		}
	}
}

// TestExecute_BadEnvPort verifies a malformed IRCRELAY_PORT fails like
// a malformed port argument.
func TestExecute_BadEnvPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("IRCRELAY_PORT", "abc")
	_, errOut := capture(t)
	err := Execute(context.Background(), []string{"--dry-run", "irc.example.org"})
	if ncerr.ExitCode(err) != ncerr.ExitBadPort {
		t.Fatalf("Execute() = %v, want bad port", err)
	}
	if !strings.Contains(errOut.String(), "Usage:") {
		t.Error("usage not printed")
	}
}

// TestExecute_DryRun verifies --dry-run validates and prints the plan.
func TestExecute_DryRun(t *testing.T) {
	clearEnv(t)
	out, _ := capture(t)
	err := Execute(context.Background(), []string{"--dry-run", "-e", "--pty", "irc.example.org", "6697"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"mode:      pty", "target:    irc.example.org:6697", "client:    telnet <address> 6697"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("plan missing %q:\n%s", want, out.String())
		}
	}
}

// TestExecute_Precedence verifies flags beat the environment, which
// beats the config file.
func TestExecute_Precedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ircrelay.toml")
	body := `
host = "file.example.org"
port = 7000
poll_interval = "20ms"

[client]
program = "nc"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("IRCRELAY_PORT", "7001")

	out, _ := capture(t)
	err := Execute(context.Background(), []string{"--config", path, "--dry-run", "--poll-interval", "10ms"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"target:    file.example.org:7001", // host from file, port from env
		"client:    nc <address> 7001",     // program from file
		"interval:  10ms",                  // flag wins
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("plan missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := Execute(context.Background(), []string{"--config", path, "--dry-run", "other.example.org", "6667"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "target:    other.example.org:6667") {
		t.Errorf("positional host and port should win:\n%s", out.String())
	}
}

// TestExecute_BadConfigFile verifies a broken file is a usage failure.
func TestExecute_BadConfigFile(t *testing.T) {
	capture(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("hots = \"typo\"\n"), 0o600)
	err := Execute(context.Background(), []string{"--config", path, "irc.example.org"})
	if err == nil || ncerr.ExitCode(err) != ncerr.ExitUsage {
		t.Errorf("Execute() = %v, want a usage failure", err)
	}
}

func TestParsePositional(t *testing.T) {
	tests := []struct {
		args []string
		host string
		port int
	}{
		{[]string{"irc.example.org"}, "irc.example.org", 6667},
		{[]string{"10.0.0.1", "6697"}, "10.0.0.1", 6697},
	}
	for _, tt := range tests {
		c := config.Default()
		if err := parsePositional(c, tt.args); err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if c.Host != tt.host || c.Port != tt.port {
			t.Errorf("%v: got %s:%d", tt.args, c.Host, c.Port)
		}
	}
}
