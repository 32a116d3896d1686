package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"ircrelay/util"
)

// SSHConfig describes the gateway an SSHDialer forwards through.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	Timeout       time.Duration
}

func (c *SSHConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// SSHDialer reaches the IRC server through an SSH gateway with a
// direct-tcpip channel.  The gateway connection is made on the first
// Dial; the address handed to Dial is resolved on the gateway side.
type SSHDialer struct {
	config *SSHConfig
	logger *util.Logger

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHDialer returns a dialer that is connected lazily.
func NewSSHDialer(cfg *SSHConfig, logger *util.Logger) *SSHDialer {
	return &SSHDialer{config: cfg, logger: logger}
}

func (d *SSHDialer) connect(ctx context.Context) (*ssh.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return d.client, nil
	}

	auth, err := AuthMethods(d.config)
	if err != nil {
		return nil, fmt.Errorf("ssh auth %s: %w", d.config.Host, err)
	}
	hostKey, err := HostKeyCallback(d.config)
	if err != nil {
		return nil, fmt.Errorf("ssh hostkey %s: %w", d.config.Host, err)
	}

	addr := d.config.addr()
	d.logger.Verbose("establishing SSH tunnel to %s@%s", d.config.User, addr)

	dialer := net.Dialer{Timeout: d.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial gateway %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            d.config.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         d.config.Timeout,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}

	d.client = ssh.NewClient(sshConn, chans, reqs)
	d.logger.Verbose("SSH tunnel established")
	return d.client, nil
}

// Dial opens a forwarded connection to address.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	client, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("tunnel: dialing %s %s", network, address)
	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("tunnel dial %s: %w", address, err)
	}
	return conn, nil
}

// Close shuts the gateway connection.  Safe to call more than once.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	if err != nil && !util.IsClosed(err) {
		return err
	}
	return nil
}

var _ Dialer = (*SSHDialer)(nil)
