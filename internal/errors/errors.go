// Package errors provides the error taxonomy of an ircrelay session.
//
// Each type carries enough context to print a one-line diagnostic and
// maps onto a distinct process exit status through [ExitCode].
package errors

import (
	"errors"
	"fmt"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNoHost      = errors.New("no host provided")
	ErrInvalidPort = errors.New("invalid port")
	ErrLoopStarted = errors.New("relay loop already started")
	ErrNoChannel   = errors.New("peer channel is not open")
)

// ── Exit codes ───────────────────────────────────────────────────────

const (
	ExitOK              = 0
	ExitUsage           = 1
	ExitNoHost          = 2
	ExitBadPort         = 3
	ExitResolution      = 4
	ExitPeerUnavailable = 5
	ExitSignalSetup     = 6
	ExitChannel         = 7
)

// ── Structured error types ───────────────────────────────────────────

// ArgumentError reports a missing or malformed command-line value.
type ArgumentError struct {
	Field   string      // flag or positional name
	Value   interface{} // the offending value (nil if missing)
	Message string
	Err     error // ErrNoHost, ErrInvalidPort, or nil
}

func (e *ArgumentError) Error() string {
	msg := e.Field
	if e.Value != nil {
		msg += fmt.Sprintf(" %q", fmt.Sprint(e.Value))
	}
	return msg + ": " + e.Message
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// ResolutionError reports a failed hostname lookup.  Lookups are never
// retried.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve %s: %v", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// PeerUnavailableError covers both a refused or timed out connection
// and a client process that failed to start.
type PeerUnavailableError struct {
	Mode string // "socket", "process", "pty"
	Addr string
	Err  error
}

func (e *PeerUnavailableError) Error() string {
	return fmt.Sprintf("peer %s unavailable (%s): %v", e.Addr, e.Mode, e.Err)
}

func (e *PeerUnavailableError) Unwrap() error { return e.Err }

// SignalSetupError reports that shutdown notifications could not be
// installed.  It is raised before any channel is opened.
type SignalSetupError struct {
	Err error
}

func (e *SignalSetupError) Error() string {
	return fmt.Sprintf("signal setup: %v", e.Err)
}

func (e *SignalSetupError) Unwrap() error { return e.Err }

// ChannelError is a runtime read or write failure inside the relay
// loop.  It is fatal to the session.
type ChannelError struct {
	Op     string // "read", "write", "wait"
	Handle string // "peer", "console"
	Err    error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Handle, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// ── Constructors ─────────────────────────────────────────────────────

// MissingHost returns the error for an absent host argument.
func MissingHost() *ArgumentError {
	return &ArgumentError{Field: "host", Message: "no host provided", Err: ErrNoHost}
}

// InvalidPort returns the error for a port outside (0, 65536).
func InvalidPort(value string) *ArgumentError {
	return &ArgumentError{
		Field:   "port",
		Value:   value,
		Message: "must be an integer between 1 and 65535",
		Err:     ErrInvalidPort,
	}
}

// Unavailable wraps a connect or spawn failure.
func Unavailable(mode, addr string, err error) *PeerUnavailableError {
	return &PeerUnavailableError{Mode: mode, Addr: addr, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// ExitCode maps err onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		argErr  *ArgumentError
		resErr  *ResolutionError
		peerErr *PeerUnavailableError
		sigErr  *SignalSetupError
		chErr   *ChannelError
	)
	switch {
	case errors.Is(err, ErrNoHost):
		return ExitNoHost
	case errors.Is(err, ErrInvalidPort):
		return ExitBadPort
	case errors.As(err, &argErr):
		return ExitUsage
	case errors.As(err, &resErr):
		return ExitResolution
	case errors.As(err, &peerErr):
		return ExitPeerUnavailable
	case errors.As(err, &sigErr):
		return ExitSignalSetup
	case errors.As(err, &chErr):
		return ExitChannel
	}
	return ExitUsage
}

// IsArgument reports whether err should be followed by usage text.
func IsArgument(err error) bool {
	var argErr *ArgumentError
	return errors.As(err, &argErr)
}

// IsNotFound reports whether a lookup failed because the name does not
// exist, as opposed to a resolver fault.
func IsNotFound(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
