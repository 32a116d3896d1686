package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	ncerr "ircrelay/internal/errors"
	"ircrelay/internal/peer"
	"ircrelay/util"
)

// Opener opens the peer channel to a resolved address.
type Opener func(ctx context.Context, addr string, port int) (peer.Channel, error)

// Controller runs a single session: install signal handling, resolve
// the host, open the channel, relay, tear down.
type Controller struct {
	Host  string
	Port  int
	NoDNS bool
	// SkipResolve hands Host to Open unresolved, for transports that
	// resolve on the far side.
	SkipResolve bool

	Open     Opener
	Resolver util.Resolver // nil uses net.DefaultResolver
	Notifier Notifier      // nil uses OSNotifier

	Console  io.Reader // nil relays the peer only
	Display  io.Writer // peer traffic; nil discards
	Banner   io.Writer // "Trying ..." line; nil uses os.Stderr
	Interval time.Duration
	Logger   *util.Logger

	mu   sync.Mutex
	sess *Session
}

// Session returns the session of the last Run, or nil.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// Run blocks until the session ends.  A stop by signal, client exit,
// context or the peer closing its end is a clean return; the error
// types of package errors describe every other outcome.
func (c *Controller) Run(ctx context.Context) error {
	if c.Open == nil {
		return ncerr.ErrNoChannel
	}
	log := c.Logger
	if log == nil {
		log = util.NewLogger(0)
	}
	notifier := c.Notifier
	if notifier == nil {
		notifier = OSNotifier{}
	}

	ctx, cancel := context.WithCancel(ctx)
	s := newSession(log, notifier, cancel)
	c.mu.Lock()
	c.sess = s
	c.mu.Unlock()
	log = s.logger

	if err := notifier.Notify(s.signals, ShutdownSignals...); err != nil {
		cancel()
		return &ncerr.SignalSetupError{Err: err}
	}
	defer func() {
		if err := s.Shutdown(); err != nil {
			log.Warn("teardown: %v", err)
		}
		log.Verbose("session ended: %s", orDefault(s.Reason(), "peer closed"))
	}()
	go s.forward(ctx)

	addr := c.Host
	if !c.SkipResolve {
		var err error
		if addr, err = util.ResolveFirst(ctx, c.Resolver, c.Host, c.NoDNS); err != nil {
			if s.Stopping() {
				return nil
			}
			return err
		}
	}

	banner := c.Banner
	if banner == nil {
		banner = os.Stderr
	}
	fmt.Fprintf(banner, "Trying %s...\n", addr)

	ch, err := c.Open(ctx, addr, c.Port)
	if err != nil {
		if s.Stopping() {
			return nil
		}
		return err
	}
	s.attach(ch)
	log.Verbose("connected to %s (%s, pid %d)", util.FormatAddr(addr, c.Port), ch.Mode(), ch.PID())
	if exited := ch.Exited(); exited != nil {
		go s.watchExit(exited)
	}

	loop := s.loop
	loop.Peer = ch.Readable()
	loop.PeerOut = ch.Writable()
	loop.Console = c.Console
	loop.Display = c.Display
	loop.Interval = c.Interval

	if err := loop.Run(ctx); err != nil {
		s.metrics.RecordError(err.Error())
		return err
	}
	if perr := peer.ExitErr(ch); perr != nil {
		log.Verbose("client process: %v", perr)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
