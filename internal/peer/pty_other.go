//go:build !(linux || darwin || freebsd)

package peer

import (
	"errors"

	ncerr "ircrelay/internal/errors"
	"ircrelay/util"
)

func openPTY(_ ProcessConfig, addr string, port int) (Channel, error) {
	return nil, ncerr.Unavailable(ModePTY, util.FormatAddr(addr, port),
		errors.New("pseudo-terminals are not supported on this platform"))
}
