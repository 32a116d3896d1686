// Package transport opens the stream connection used by socket-mode
// sessions.  A Dialer decides how the bytes travel (plain TCP or
// forwarded through an SSH gateway); what flows over the connection is
// the relay loop's business.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound stream connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH client).  Stateless dialers return nil.
	Close() error
}
