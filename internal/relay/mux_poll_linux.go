//go:build linux

package relay

import (
	"errors"
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// pollMux waits with poll(2) and sizes reads with TIOCINQ, linux's
// name for FIONREAD.
type pollMux struct {
	handles []*fdHandle
	fds     []unix.PollFd
}

type fdHandle struct {
	r   io.Reader
	raw syscall.RawConn
	fd  int
}

func (h *fdHandle) Read(p []byte) (int, error) { return h.r.Read(p) }

func (h *fdHandle) Available() (int, error) {
	var (
		n    int
		ierr error
	)
	err := h.raw.Control(func(fd uintptr) {
		n, ierr = unix.IoctlGetInt(int(fd), unix.TIOCINQ)
	})
	if err != nil {
		return 0, err
	}
	// Some character devices (/dev/null among them) do not answer
	// TIOCINQ; poll already said a read will not block.
	if errors.Is(ierr, unix.ENOTTY) || errors.Is(ierr, unix.EINVAL) {
		return 0, nil
	}
	return n, ierr
}

func newPollMux(readers []io.Reader) Multiplexer {
	for _, r := range readers {
		if _, ok := r.(syscall.Conn); !ok {
			return nil
		}
	}
	return &pollMux{}
}

func (m *pollMux) Register(r io.Reader) (Handle, error) {
	sc, ok := r.(syscall.Conn)
	if !ok {
		return nil, fmt.Errorf("%T has no file descriptor", r)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil, err
	}
	h := &fdHandle{r: r, raw: raw, fd: -1}
	if err := raw.Control(func(fd uintptr) { h.fd = int(fd) }); err != nil {
		return nil, err
	}
	m.handles = append(m.handles, h)
	return h, nil
}

func (m *pollMux) Deregister(h Handle) {
	for i, x := range m.handles {
		if Handle(x) == h {
			m.handles = append(m.handles[:i], m.handles[i+1:]...)
			return
		}
	}
}

func (m *pollMux) Wait(timeout time.Duration, wake <-chan struct{}) ([]Handle, error) {
	if len(m.handles) == 0 {
		return nil, sleep(timeout, wake)
	}

	m.fds = m.fds[:0]
	for _, h := range m.handles {
		m.fds = append(m.fds, unix.PollFd{Fd: int32(h.fd), Events: unix.POLLIN})
	}

	ms := int(timeout / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	n, err := unix.Poll(m.fds, ms)
	if errors.Is(err, unix.EINTR) || n == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ready := make([]Handle, 0, n)
	for i, pfd := range m.fds {
		if pfd.Revents != 0 {
			ready = append(ready, m.handles[i])
		}
	}
	return ready, nil
}

func (m *pollMux) Close() error {
	m.handles = nil
	m.fds = nil
	return nil
}
