//go:build linux || darwin || freebsd

package peer

import (
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"

	ncerr "ircrelay/internal/errors"
	"ircrelay/util"
)

// ptyMaster reports the EIO a master returns once the child side is
// gone as a plain end of stream.  Embedding keeps SyscallConn visible
// to the poll multiplexer.
type ptyMaster struct {
	*os.File
}

func (m ptyMaster) Read(p []byte) (int, error) {
	n, err := m.File.Read(p)
	if errors.Is(err, syscall.EIO) {
		err = io.EOF
	}
	return n, err
}

// openPTY runs the client on a fresh pseudo-terminal in raw mode, so
// relayed input is neither echoed back nor rewritten by the line
// discipline.
func openPTY(cfg ProcessConfig, addr string, port int) (Channel, error) {
	target := util.FormatAddr(addr, port)

	master, tty, err := pty.Open()
	if err != nil {
		return nil, ncerr.Unavailable(ModePTY, target, err)
	}
	defer tty.Close()

	if _, err := term.MakeRaw(int(tty.Fd())); err != nil {
		master.Close()
		return nil, ncerr.Unavailable(ModePTY, target, err)
	}

	cmd := cfg.command(addr, port)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = tty, tty, tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		master.Close()
		return nil, ncerr.Unavailable(ModePTY, target, err)
	}

	m := ptyMaster{master}
	return startReaper(&processChannel{
		mode:    ModePTY,
		cmd:     cmd,
		r:       m,
		w:       master,
		closers: []io.Closer{master},
		grace:   cfg.GracePeriod,
	}), nil
}
