package peer

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	ncerr "ircrelay/internal/errors"
	"ircrelay/internal/transport"
	"ircrelay/util"
)

type socketChannel struct {
	conn   net.Conn
	dialer transport.Dialer

	once sync.Once
	err  error
}

// OpenSocket dials addr ("host:port") with d.  The dialer is owned by
// the channel from here on and closed with it, or immediately when the
// connection cannot be made.
func OpenSocket(ctx context.Context, d transport.Dialer, addr string) (Channel, error) {
	conn, err := d.Dial(ctx, "tcp", addr)
	if err != nil {
		d.Close()
		return nil, ncerr.Unavailable(ModeSocket, addr, err)
	}
	return &socketChannel{conn: conn, dialer: d}, nil
}

func (s *socketChannel) Readable() io.Reader     { return s.conn }
func (s *socketChannel) Writable() io.Writer     { return s.conn }
func (s *socketChannel) PID() int                { return 0 }
func (s *socketChannel) Exited() <-chan struct{} { return nil }
func (s *socketChannel) Mode() string            { return ModeSocket }

func (s *socketChannel) Close() error {
	s.once.Do(func() {
		var errs []error
		if err := s.conn.Close(); err != nil && !util.IsClosed(err) {
			errs = append(errs, err)
		}
		if err := s.dialer.Close(); err != nil {
			errs = append(errs, err)
		}
		s.err = errors.Join(errs...)
	})
	return s.err
}
