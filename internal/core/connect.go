package core

import (
	"context"
	"strings"

	"ircrelay/internal/peer"
	"ircrelay/internal/transport"
	"ircrelay/util"
)

// SocketOpener connects to the peer over a stream socket, directly or
// through the SSH gateway, depending on the dialer it is given.
type SocketOpener struct {
	// NewDialer returns a fresh dialer per open; the channel owns it.
	NewDialer func() transport.Dialer
	Logger    *util.Logger
}

// Open dials addr:port.
func (o *SocketOpener) Open(ctx context.Context, addr string, port int) (peer.Channel, error) {
	address := util.FormatAddr(addr, port)
	o.Logger.Verbose("connecting to %s", address)
	return peer.OpenSocket(ctx, o.NewDialer(), address)
}

// ProcessOpener spawns the line-protocol client with the address and
// port as its final arguments.
type ProcessOpener struct {
	Config peer.ProcessConfig
	Logger *util.Logger
}

// Open starts the client.
func (o *ProcessOpener) Open(ctx context.Context, addr string, port int) (peer.Channel, error) {
	if o.Logger.Enabled(util.LogVerbose) {
		argv := append([]string{o.Config.Program}, o.Config.Argv(addr, port)...)
		o.Logger.Verbose("spawning %s", strings.Join(argv, " "))
	}
	return peer.OpenProcess(ctx, o.Config, addr, port)
}
