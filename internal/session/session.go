// Package session owns one relay session from start to finish: the peer
// channel, the relay loop driving it and the teardown that releases
// both.
//
// Everything that can end a session (an interrupt, the client process
// exiting, the caller's context) only asks the loop to stop.  The
// resources are released once, by Shutdown, on whichever path returns
// first.
package session

import (
	"context"
	"os"
	"sync"

	"github.com/google/uuid"

	"ircrelay/internal/metrics"
	"ircrelay/internal/peer"
	"ircrelay/internal/relay"
	"ircrelay/util"
)

// Session is the state shared between the controller, the signal
// forwarder and teardown.
type Session struct {
	id      string
	loop    *relay.Loop
	metrics *metrics.Collector
	logger  *util.Logger
	cancel  context.CancelFunc

	notifier Notifier
	signals  chan os.Signal

	mu      sync.Mutex
	channel peer.Channel
	reason  string

	once     sync.Once
	done     chan struct{}
	closeErr error
}

func newSession(logger *util.Logger, n Notifier, cancel context.CancelFunc) *Session {
	id := uuid.NewString()
	if logger.Enabled(util.LogDebug) {
		logger = logger.With(id[:8])
	}
	m := metrics.New(id)
	return &Session{
		id:       id,
		loop:     &relay.Loop{Logger: logger, Metrics: m},
		metrics:  m,
		logger:   logger,
		cancel:   cancel,
		notifier: n,
		signals:  make(chan os.Signal, 1),
		done:     make(chan struct{}),
	}
}

// ID is the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Metrics returns the session's traffic counters.
func (s *Session) Metrics() *metrics.Collector { return s.metrics }

// Channel returns the open peer channel, or nil before it is opened.
func (s *Session) Channel() peer.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

func (s *Session) attach(ch peer.Channel) {
	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()
}

// Stop asks the session to end and records why.  Only the first reason
// is kept.  It never blocks and never touches the channel.
func (s *Session) Stop(reason string) {
	s.mu.Lock()
	if s.reason == "" {
		s.reason = reason
	}
	s.mu.Unlock()
	s.loop.Stop()
	s.cancel()
}

// Stopping reports whether Stop has been called.
func (s *Session) Stopping() bool { return s.loop.Stopping() }

// Reason returns the first stop reason, or "" if none was given.
func (s *Session) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Shutdown releases everything the session holds: it stops the loop,
// closes the channel (reaping any client process), stops signal
// delivery and logs the metrics snapshot.  Only the first call does
// work; later calls return its result.
func (s *Session) Shutdown() error {
	s.once.Do(func() {
		s.loop.Stop()
		close(s.done)
		if ch := s.Channel(); ch != nil {
			s.closeErr = ch.Close()
		}
		s.notifier.Stop(s.signals)
		s.cancel()
		s.logger.Debug("session %s closed: %s", s.id, s.metrics.JSON())
	})
	return s.closeErr
}

// forward turns the first shutdown event into a stop request.
func (s *Session) forward(ctx context.Context) {
	select {
	case sig := <-s.signals:
		s.logger.Verbose("received %v", sig)
		s.Stop("signal " + sig.String())
	case <-ctx.Done():
		s.Stop("context done")
	case <-s.done:
	}
}

// watchExit stops the session when the client process is reaped.
func (s *Session) watchExit(exited <-chan struct{}) {
	select {
	case <-exited:
		s.Stop("peer process exited")
	case <-s.done:
	}
}
