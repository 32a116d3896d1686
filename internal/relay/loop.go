// Package relay moves bytes between the peer channel and the user's
// console.
//
// The loop waits on both handles through a Multiplexer, drains whatever
// is pending in bounded chunks, answers keep-alive challenges from the
// peer itself and forwards everything else: peer traffic to the
// display, console input to the peer unmodified.  Stop may be called
// from any goroutine; the loop notices at the next wake-up, which is
// never further away than Interval.
package relay

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	ncerr "ircrelay/internal/errors"
	"ircrelay/internal/intercept"
	"ircrelay/internal/metrics"
	"ircrelay/util"
)

// DefaultInterval is the wait timeout used when Loop.Interval is zero.
const DefaultInterval = 5 * time.Millisecond

// maxEmptyReads bounds consecutive zero-byte reads on a handle that
// reported data, so a short read race cannot spin the drain forever.
const maxEmptyReads = 3

// Handle names used in ChannelError.
const (
	handlePeer    = "peer"
	handleConsole = "console"
)

// Loop is a single relay session.  Configure the exported fields, then
// call Run once.
type Loop struct {
	Peer    io.Reader // bytes from the peer
	PeerOut io.Writer // bytes to the peer
	Console io.Reader // user input; nil relays the peer only
	Display io.Writer // where peer traffic is shown

	Interval time.Duration
	Mux      Multiplexer // nil picks one for Peer and Console
	Logger   *util.Logger
	Metrics  *metrics.Collector

	state    atomic.Int32
	stopping atomic.Bool
	initOnce sync.Once
	stopOnce sync.Once
	wake     chan struct{}
}

// State reports where the loop is in its lifecycle.
func (l *Loop) State() State { return State(l.state.Load()) }

// Stop asks the loop to return.  It is safe to call from any goroutine,
// more than once, and before Run.
func (l *Loop) Stop() {
	l.stopping.Store(true)
	l.stopOnce.Do(func() { close(l.wakeCh()) })
}

// Stopping reports whether Stop has been called.
func (l *Loop) Stopping() bool { return l.stopping.Load() }

func (l *Loop) wakeCh() chan struct{} {
	l.initOnce.Do(func() { l.wake = make(chan struct{}) })
	return l.wake
}

func (l *Loop) interval() time.Duration {
	if l.Interval > 0 {
		return l.Interval
	}
	return DefaultInterval
}

func (l *Loop) logger() *util.Logger {
	if l.Logger == nil {
		l.Logger = util.NewLogger(0)
	}
	return l.Logger
}

// Run relays until Stop is called, ctx is done, or the peer closes its
// end, all of which return nil.  Any read or write failure ends the
// loop with a *errors.ChannelError.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return ncerr.ErrLoopStarted
	}
	defer l.state.Store(int32(Stopped))

	if l.Peer == nil || l.PeerOut == nil {
		return ncerr.ErrNoChannel
	}
	if l.Display == nil {
		l.Display = io.Discard
	}
	log := l.logger()

	mux := l.Mux
	if mux == nil {
		readers := []io.Reader{l.Peer}
		if l.Console != nil {
			readers = append(readers, l.Console)
		}
		mux = NewMultiplexer(readers...)
	}
	defer mux.Close()

	peer, err := mux.Register(l.Peer)
	if err != nil {
		return &ncerr.ChannelError{Op: "register", Handle: handlePeer, Err: err}
	}
	var console Handle
	if l.Console != nil {
		if console, err = mux.Register(l.Console); err != nil {
			return &ncerr.ChannelError{Op: "register", Handle: handleConsole, Err: err}
		}
	}

	buf := make([]byte, util.ChunkSize)
	interval := l.interval()
	wake := l.wakeCh()
	log.Debug("relay running (%T, interval %v)", mux, interval)

	for {
		if l.stopping.Load() {
			log.Verbose("stop requested")
			return nil
		}
		if ctx.Err() != nil {
			log.Verbose("context done: %v", ctx.Err())
			return nil
		}

		ready, err := mux.Wait(interval, wake)
		if err != nil {
			return &ncerr.ChannelError{Op: "wait", Handle: handlePeer, Err: err}
		}

		for _, h := range ready {
			if l.stopping.Load() {
				break
			}
			l.state.Store(int32(Draining))
			switch h {
			case peer:
				closed, err := l.drain(h, handlePeer, buf, l.fromPeer)
				if err != nil {
					return l.failure(err)
				}
				if closed {
					log.Verbose("peer closed the connection")
					return nil
				}
			case console:
				closed, err := l.drain(h, handleConsole, buf, l.fromConsole)
				if err != nil {
					return l.failure(err)
				}
				if closed {
					log.Verbose("console closed, relaying peer only")
					mux.Deregister(console)
					console = nil
				}
			}
			l.state.Store(int32(Running))
		}
	}
}

// failure filters out errors caused by a teardown racing a drain that
// was already under way when Stop was called.
func (l *Loop) failure(err error) error {
	if l.stopping.Load() && util.IsClosed(err) {
		return nil
	}
	return err
}

// drain reads h until nothing is pending, handing each chunk to route.
// It reports closed when the handle reached end of stream.
func (l *Loop) drain(h Handle, name string, buf []byte, route func([]byte) error) (closed bool, err error) {
	probe := true
	for empty := 0; empty < maxEmptyReads; {
		n, err := h.Available()
		if err != nil {
			return false, &ncerr.ChannelError{Op: "read", Handle: name, Err: err}
		}
		if n == 0 && !probe {
			return false, nil
		}
		probe = false
		if n == 0 || n > len(buf) {
			n = len(buf)
		}

		m, err := h.Read(buf[:n])
		if m > 0 {
			empty = 0
			if rerr := route(buf[:m]); rerr != nil {
				return false, rerr
			}
		} else if err == nil {
			empty++
		}
		if err != nil {
			if err == io.EOF {
				return true, nil
			}
			return false, &ncerr.ChannelError{Op: "read", Handle: name, Err: err}
		}
	}
	return false, nil
}

func (l *Loop) fromPeer(chunk []byte) error {
	l.Metrics.PeerRead(len(chunk))

	res := intercept.Classify(chunk)
	if res.Kind() == intercept.Reply {
		if err := l.writePeer(res.Reply); err != nil {
			return err
		}
		l.Metrics.ChallengeAnswered(res.Source)
		l.logger().Debug("answered PING from %q", res.Source)
	}
	if len(res.Display) == 0 {
		return nil
	}
	n, err := l.Display.Write(res.Display)
	l.Metrics.Displayed(n)
	if err != nil {
		return &ncerr.ChannelError{Op: "write", Handle: handleConsole, Err: err}
	}
	return nil
}

func (l *Loop) fromConsole(chunk []byte) error {
	l.Metrics.ConsoleRead(len(chunk))
	return l.writePeer(chunk)
}

func (l *Loop) writePeer(p []byte) error {
	n, err := l.PeerOut.Write(p)
	l.Metrics.PeerWritten(n)
	if err != nil {
		return &ncerr.ChannelError{Op: "write", Handle: handlePeer, Err: err}
	}
	return nil
}
