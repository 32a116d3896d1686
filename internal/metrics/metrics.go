// Package metrics counts what flowed through a relay session.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks traffic and keep-alive statistics for one session.
type Collector struct {
	sessionID string

	peerBytes    atomic.Int64 // read from the peer
	consoleBytes atomic.Int64 // read from the console
	sentBytes    atomic.Int64 // written to the peer
	shownBytes   atomic.Int64 // written to the display
	chunks       atomic.Int64
	challenges   atomic.Int64
	errorsTotal  atomic.Int64

	mu            sync.RWMutex
	startTime     time.Time
	lastChallenge time.Time
	lastSource    string
	lastError     time.Time
	lastErrorMsg  string
}

// New creates a collector for sessionID with the start time set to now.
func New(sessionID string) *Collector {
	return &Collector{sessionID: sessionID, startTime: time.Now()}
}

// ── Traffic ──────────────────────────────────────────────────────────

// PeerRead records one chunk of n bytes read from the peer.
func (c *Collector) PeerRead(n int) {
	if c == nil {
		return
	}
	c.chunks.Add(1)
	c.peerBytes.Add(int64(n))
}

// ConsoleRead records one chunk of n bytes read from the console.
func (c *Collector) ConsoleRead(n int) {
	if c == nil {
		return
	}
	c.chunks.Add(1)
	c.consoleBytes.Add(int64(n))
}

// PeerWritten records n bytes written to the peer.
func (c *Collector) PeerWritten(n int) {
	if c == nil {
		return
	}
	c.sentBytes.Add(int64(n))
}

// Displayed records n bytes shown to the user.
func (c *Collector) Displayed(n int) {
	if c == nil {
		return
	}
	c.shownBytes.Add(int64(n))
}

// BytesIn returns the total read from the peer.
func (c *Collector) BytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.peerBytes.Load()
}

// BytesOut returns the total written to the peer.
func (c *Collector) BytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.sentBytes.Load()
}

// ── Keep-alive ───────────────────────────────────────────────────────

// ChallengeAnswered records an automatic reply to source.
func (c *Collector) ChallengeAnswered(source string) {
	if c == nil {
		return
	}
	c.challenges.Add(1)
	c.mu.Lock()
	c.lastChallenge = time.Now()
	c.lastSource = source
	c.mu.Unlock()
}

// Challenges returns how many challenges were answered.
func (c *Collector) Challenges() int64 {
	if c == nil {
		return 0
	}
	return c.challenges.Load()
}

// ── Errors ───────────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Session          string `json:"session"`
	Uptime           string `json:"uptime"`
	PeerBytes        int64  `json:"peer_bytes"`
	ConsoleBytes     int64  `json:"console_bytes"`
	SentBytes        int64  `json:"sent_bytes"`
	DisplayedBytes   int64  `json:"displayed_bytes"`
	Chunks           int64  `json:"chunks"`
	Challenges       int64  `json:"challenges"`
	LastChallenge    string `json:"last_challenge,omitempty"`
	LastSource       string `json:"last_source,omitempty"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Session:        c.sessionID,
		Uptime:         time.Since(c.startTime).Truncate(time.Millisecond).String(),
		PeerBytes:      c.peerBytes.Load(),
		ConsoleBytes:   c.consoleBytes.Load(),
		SentBytes:      c.sentBytes.Load(),
		DisplayedBytes: c.shownBytes.Load(),
		Chunks:         c.chunks.Load(),
		Challenges:     c.challenges.Load(),
		ErrorsTotal:    c.errorsTotal.Load(),
	}
	if !c.lastChallenge.IsZero() {
		s.LastChallenge = c.lastChallenge.Format(time.RFC3339)
		s.LastSource = c.lastSource
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as a single-line JSON document.
func (c *Collector) JSON() string {
	data, _ := json.Marshal(c.Snapshot())
	return string(data)
}
