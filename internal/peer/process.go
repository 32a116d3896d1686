package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	ncerr "ircrelay/internal/errors"
	"ircrelay/util"
)

// ProcessConfig describes the client program spawned in process mode.
type ProcessConfig struct {
	Program    string
	Args       []string // placed before the address and port
	InheritEnv bool
	Env        []string // KEY=VALUE pairs added to the child environment
	PTY        bool

	// Stderr receives the child's stderr in pipe mode (default os.Stderr).
	Stderr io.Writer
	// GracePeriod bounds each wait during Close.
	GracePeriod time.Duration
}

// Argv is the child argument list: Args, then addr and port.
func (c ProcessConfig) Argv(addr string, port int) []string {
	argv := make([]string, 0, len(c.Args)+2)
	argv = append(argv, c.Args...)
	return append(argv, addr, strconv.Itoa(port))
}

func (c ProcessConfig) environ() []string {
	env := []string{}
	if c.InheritEnv {
		env = append(env, os.Environ()...)
	}
	return append(env, c.Env...)
}

func (c ProcessConfig) command(addr string, port int) *exec.Cmd {
	cmd := exec.Command(c.Program, c.Argv(addr, port)...)
	cmd.Env = c.environ()
	return cmd
}

// OpenProcess starts the client with addr and port as its trailing
// arguments.  The child's stdout becomes the readable handle and its
// stdin the writable one; with PTY set both are the pty master.
func OpenProcess(_ context.Context, cfg ProcessConfig, addr string, port int) (Channel, error) {
	if cfg.PTY {
		return openPTY(cfg, addr, port)
	}
	target := util.FormatAddr(addr, port)

	childIn, stdinW, err := os.Pipe()
	if err != nil {
		return nil, ncerr.Unavailable(ModeProcess, target, err)
	}
	stdoutR, childOut, err := os.Pipe()
	if err != nil {
		childIn.Close()
		stdinW.Close()
		return nil, ncerr.Unavailable(ModeProcess, target, err)
	}

	cmd := cfg.command(addr, port)
	cmd.Stdin = childIn
	cmd.Stdout = childOut
	cmd.Stderr = cfg.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err = cmd.Start()
	// The child holds its own copies of these ends now.
	childIn.Close()
	childOut.Close()
	if err != nil {
		stdinW.Close()
		stdoutR.Close()
		return nil, ncerr.Unavailable(ModeProcess, target, err)
	}

	return startReaper(&processChannel{
		mode:    ModeProcess,
		cmd:     cmd,
		r:       stdoutR,
		w:       stdinW,
		closers: []io.Closer{stdinW, stdoutR},
		grace:   cfg.GracePeriod,
	}), nil
}

// eofGrace is how long a child gets to exit on its own after its stdin
// was closed.
const eofGrace = 100 * time.Millisecond

type processChannel struct {
	mode    string
	cmd     *exec.Cmd
	r       io.Reader
	w       io.Writer
	closers []io.Closer // writable first
	grace   time.Duration

	exited  chan struct{}
	waitErr error

	once     sync.Once
	closeErr error
}

// startReaper waits for the child in the background so that Exited
// fires as soon as it terminates.
func startReaper(p *processChannel) *processChannel {
	if p.grace <= 0 {
		p.grace = 2 * time.Second
	}
	p.exited = make(chan struct{})
	go func() {
		p.waitErr = p.cmd.Wait()
		close(p.exited)
	}()
	return p
}

func (p *processChannel) Readable() io.Reader     { return p.r }
func (p *processChannel) Writable() io.Writer     { return p.w }
func (p *processChannel) PID() int                { return p.cmd.Process.Pid }
func (p *processChannel) Exited() <-chan struct{} { return p.exited }
func (p *processChannel) Mode() string            { return p.mode }

func (p *processChannel) exitErr() error {
	select {
	case <-p.exited:
		return p.waitErr
	default:
		return nil
	}
}

func (p *processChannel) Close() error {
	p.once.Do(func() {
		var errs []error
		for _, c := range p.closers {
			if err := c.Close(); err != nil && !util.IsClosed(err) {
				errs = append(errs, err)
			}
		}
		if err := p.reap(); err != nil {
			errs = append(errs, err)
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}

// reap collects the child without blocking indefinitely: it may already
// be gone, may exit on the EOF we just gave it, or may need SIGTERM and
// finally SIGKILL.
func (p *processChannel) reap() error {
	if p.waitFor(min(p.grace, eofGrace)) {
		return nil
	}
	_ = p.cmd.Process.Signal(syscall.SIGTERM)
	if p.waitFor(p.grace) {
		return nil
	}
	_ = p.cmd.Process.Kill()
	if p.waitFor(p.grace) {
		return nil
	}
	return fmt.Errorf("process %d did not exit", p.cmd.Process.Pid)
}

func (p *processChannel) waitFor(d time.Duration) bool {
	select {
	case <-p.exited:
		return true
	default:
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.exited:
		return true
	case <-t.C:
		return false
	}
}
