// Package intercept recognises IRC keep-alive challenges in raw chunks
// read from the peer and builds the matching reply.
//
// Classification works on whatever the transport handed us, not on
// assembled lines: a chunk may hold several lines or a partial one.
// A challenge split across two chunks is not detected.
package intercept

import "bytes"

var (
	challenge = []byte("PING")
	response  = []byte("PONG ")
)

// Kind tells the relay what to do with a chunk.
type Kind int

const (
	// Passthrough means the chunk is shown to the user unchanged.
	Passthrough Kind = iota
	// Reply means Result.Reply must be written back to the peer.
	Reply
)

func (k Kind) String() string {
	if k == Reply {
		return "reply"
	}
	return "passthrough"
}

// Result is the outcome of [Classify].
type Result struct {
	// Reply is the line to send back to the peer, nil for passthrough.
	Reply []byte
	// Source is the token that followed PING.  Empty when PING was the
	// last thing on its line.
	Source string
	// Display is what remains to be shown to the user.  For a
	// passthrough it is the chunk itself; for a challenge it is the
	// chunk with the challenge line removed, often empty.
	Display []byte
}

// Kind reports whether the result carries a reply.
func (r Result) Kind() Kind {
	if r.Reply != nil {
		return Reply
	}
	return Passthrough
}

// Classify inspects chunk for a PING challenge.  Only the first
// occurrence is answered.  Display aliases chunk when nothing was
// removed, so callers must not retain it past the next read.
func Classify(chunk []byte) Result {
	i := bytes.Index(chunk, challenge)
	if i < 0 {
		return Result{Display: chunk}
	}

	src := sourceToken(chunk[i+len(challenge):])

	reply := make([]byte, 0, len(response)+len(src)+1)
	reply = append(reply, response...)
	reply = append(reply, src...)
	reply = append(reply, '\n')

	return Result{
		Reply:   reply,
		Source:  string(src),
		Display: withoutLine(chunk, i),
	}
}

// sourceToken skips horizontal blanks and returns the run of
// non-whitespace bytes that follows.  It never crosses a line break.
func sourceToken(rest []byte) []byte {
	start := 0
	for start < len(rest) && (rest[start] == ' ' || rest[start] == '\t') {
		start++
	}
	end := start
	for end < len(rest) && !isSpace(rest[end]) {
		end++
	}
	return rest[start:end]
}

// withoutLine drops the line containing offset at from chunk.
func withoutLine(chunk []byte, at int) []byte {
	start := bytes.LastIndexByte(chunk[:at], '\n') + 1
	end := len(chunk)
	if j := bytes.IndexByte(chunk[at:], '\n'); j >= 0 {
		end = at + j + 1
	}
	if start == 0 && end == len(chunk) {
		return nil
	}
	out := make([]byte, 0, len(chunk)-(end-start))
	out = append(out, chunk[:start]...)
	return append(out, chunk[end:]...)
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}
	return false
}
