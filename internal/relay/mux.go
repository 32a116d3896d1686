package relay

import (
	"errors"
	"io"
	"time"
)

var errMuxClosed = errors.New("multiplexer closed")

// Handle is a readable endpoint registered with a Multiplexer.
type Handle interface {
	io.Reader
	// Available reports how many bytes can be read right now without
	// blocking.  Zero on a handle that Wait reported ready means end of
	// stream, or that the count cannot be known; a read settles which.
	Available() (int, error)
}

// Multiplexer blocks until registered handles have pending data.
// It is used from a single goroutine.
type Multiplexer interface {
	// Register starts watching r.
	Register(r io.Reader) (Handle, error)
	// Deregister stops watching h.  It does not close the reader.
	Deregister(h Handle)
	// Wait returns the handles that are ready, or none once timeout
	// elapses.  A receive on wake may cut the wait short.
	Wait(timeout time.Duration, wake <-chan struct{}) ([]Handle, error)
	// Close drops every registration.
	Close() error
}

// NewMultiplexer returns the poll multiplexer when every reader is
// backed by a file descriptor and the platform supports it, and the
// goroutine-fed multiplexer otherwise.
func NewMultiplexer(readers ...io.Reader) Multiplexer {
	if m := newPollMux(readers); m != nil {
		return m
	}
	return newPumpMux()
}
