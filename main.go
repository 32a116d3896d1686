// ircrelay relays a terminal to an IRC server, answering the server's
// PING keep-alives on the user's behalf.
package main

import (
	"context"
	"fmt"
	"os"

	"ircrelay/cmd"
	ncerr "ircrelay/internal/errors"
)

func main() {
	// Shutdown signals are installed by the session itself, so that a
	// failure to install them can be reported with its own status.
	if err := cmd.Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ircrelay: %v\n", err)
		os.Exit(ncerr.ExitCode(err))
	}
}
