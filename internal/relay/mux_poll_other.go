//go:build !linux

package relay

import "io"

// poll(2) on darwin and the BSDs does not report terminal devices
// reliably, so everything outside linux uses the pump.
func newPollMux([]io.Reader) Multiplexer { return nil }
