package relay

import (
	"io"
	"time"

	"ircrelay/util"
)

// pumpQueue bounds how many chunks a reader goroutine may buffer ahead
// of the loop.
const pumpQueue = 16

// pumpMux serves readers without a descriptor (SSH channels, in-memory
// pipes).  One goroutine per handle performs the blocking reads and
// queues chunks; Available reports what is queued.
type pumpMux struct {
	handles []*pumpHandle
	signal  chan struct{}
}

func newPumpMux() *pumpMux {
	return &pumpMux{signal: make(chan struct{}, 1)}
}

type pumpHandle struct {
	chunks chan *[]byte
	done   chan struct{}
	quit   chan struct{}
	err    error // set before done is closed

	cur     *[]byte
	pending []byte
}

func (m *pumpMux) notify() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *pumpMux) Register(r io.Reader) (Handle, error) {
	h := &pumpHandle{
		chunks: make(chan *[]byte, pumpQueue),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
	}
	m.handles = append(m.handles, h)
	go m.pump(h, r)
	return h, nil
}

func (m *pumpMux) pump(h *pumpHandle, r io.Reader) {
	for {
		buf := util.GetBuf()
		n, err := r.Read(*buf)
		if n > 0 {
			*buf = (*buf)[:n]
			select {
			case h.chunks <- buf:
				m.notify()
			case <-h.quit:
				util.PutBuf(buf)
				h.err = errMuxClosed
				close(h.done)
				return
			}
		} else {
			util.PutBuf(buf)
		}
		if err != nil {
			h.err = err
			close(h.done)
			m.notify()
			return
		}
	}
}

func (m *pumpMux) Deregister(h Handle) {
	for i, x := range m.handles {
		if Handle(x) == h {
			close(x.quit)
			m.handles = append(m.handles[:i], m.handles[i+1:]...)
			return
		}
	}
}

func (m *pumpMux) Wait(timeout time.Duration, wake <-chan struct{}) ([]Handle, error) {
	if ready := m.ready(); len(ready) > 0 {
		return ready, nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-m.signal:
	case <-wake:
	case <-t.C:
	}
	return m.ready(), nil
}

func (m *pumpMux) ready() []Handle {
	var ready []Handle
	for _, h := range m.handles {
		if len(h.pending) > 0 || len(h.chunks) > 0 || h.finished() {
			ready = append(ready, h)
		}
	}
	return ready
}

// Close releases the reader goroutines.  One still blocked in Read
// exits when that read returns.
func (m *pumpMux) Close() error {
	for _, h := range m.handles {
		close(h.quit)
	}
	m.handles = nil
	return nil
}

func (h *pumpHandle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *pumpHandle) Available() (int, error) {
	if len(h.pending) > 0 {
		return len(h.pending), nil
	}
	if h.cur != nil {
		util.PutBuf(h.cur)
		h.cur = nil
	}
	select {
	case buf := <-h.chunks:
		h.cur, h.pending = buf, *buf
		return len(h.pending), nil
	default:
		return 0, nil
	}
}

// Read never blocks.  It returns 0, nil when nothing is queued yet and
// the reader's final error once the queue is drained after it ended.
func (h *pumpHandle) Read(p []byte) (int, error) {
	if len(h.pending) == 0 {
		// Every chunk is queued before done closes, so checking done
		// first guarantees nothing is lost.
		finished := h.finished()
		if n, _ := h.Available(); n == 0 {
			if finished {
				return 0, h.err
			}
			return 0, nil
		}
	}
	n := copy(p, h.pending)
	h.pending = h.pending[n:]
	return n, nil
}
