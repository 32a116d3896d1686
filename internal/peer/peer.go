// Package peer provides the channel to the remote IRC server.
//
// A Channel hides whether the bytes travel over a socket we dialed
// ourselves or through the stdio of a spawned line-protocol client such
// as telnet.  Every variant is fully open when its constructor returns
// and is released by a single idempotent Close.
package peer

import "io"

// Modes reported in errors and logs.
const (
	ModeSocket  = "socket"
	ModeProcess = "process"
	ModePTY     = "pty"
)

// Channel is an open transport to the peer.
type Channel interface {
	// Readable is the handle peer bytes arrive on.
	Readable() io.Reader
	// Writable is the handle bytes for the peer are written to.  It may
	// be the same object as Readable.
	Writable() io.Writer
	// PID is the owning process, or 0 for a socket.
	PID() int
	// Exited is closed once the owning process has been reaped.  It is
	// nil for a socket, which blocks forever in a select.
	Exited() <-chan struct{}
	// Mode names the variant for diagnostics.
	Mode() string
	// Close releases the handles and reaps the process.  Calls after
	// the first return the first call's result.
	Close() error
}

// ExitErr returns how the owning process ended, or nil when ch has no
// process or it exited cleanly.  Only meaningful after Exited fired.
func ExitErr(ch Channel) error {
	if p, ok := ch.(interface{ exitErr() error }); ok {
		return p.exitErr()
	}
	return nil
}
