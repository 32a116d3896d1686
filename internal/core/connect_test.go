package core

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	ncerr "ircrelay/internal/errors"
	"ircrelay/internal/peer"
	"ircrelay/internal/transport"
	"ircrelay/util"
)

// TestSocketOpener_TCP verifies an opened socket channel reaches the
// server in both directions.
func TestSocketOpener_TCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte(":srv NOTICE * :hello\n"))
		line, _ := bufio.NewReader(conn).ReadString('\n')
		got <- line
	}()

	o := &SocketOpener{
		NewDialer: func() transport.Dialer { return &transport.TCPDialer{Timeout: time.Second} },
		Logger:    util.NewLogger(0),
	}
	ch, err := o.Open(context.Background(), "127.0.0.1", ln.Addr().(*net.TCPAddr).Port)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	line, err := bufio.NewReader(ch.Readable()).ReadString('\n')
	if err != nil || line != ":srv NOTICE * :hello\n" {
		t.Fatalf("read %q, %v", line, err)
	}
	ch.Writable().Write([]byte("NICK tester\n"))
	select {
	case l := <-got:
		if l != "NICK tester\n" {
			t.Errorf("server got %q", l)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server got nothing")
	}
}

// TestSocketOpener_Refused verifies a refused connection surfaces as a
// peer-unavailable error.
func TestSocketOpener_Refused(t *testing.T) {
	ln, _ := net.Listen("tcp", "127.0.0.1:0")
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	o := &SocketOpener{
		NewDialer: func() transport.Dialer { return &transport.TCPDialer{Timeout: time.Second} },
		Logger:    util.NewLogger(0),
	}
	_, err := o.Open(context.Background(), "127.0.0.1", port)
	var pe *ncerr.PeerUnavailableError
	if !errors.As(err, &pe) || pe.Mode != peer.ModeSocket {
		t.Errorf("Open() = %v, want PeerUnavailableError", err)
	}
}

// TestProcessOpener_Sh spawns a shell standing in for telnet and checks
// it received the address and port as trailing arguments.
func TestProcessOpener_Sh(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	o := &ProcessOpener{
		Config: peer.ProcessConfig{
			Program:    "/bin/sh",
			Args:       []string{"-c", `echo "connect $0 $1"`},
			InheritEnv: true,
		},
		Logger: util.NewLogger(0),
	}
	ch, err := o.Open(context.Background(), "10.1.2.3", 6697)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	line, err := bufio.NewReader(ch.Readable()).ReadString('\n')
	if err != nil || line != "connect 10.1.2.3 6697\n" {
		t.Errorf("read %q, %v", line, err)
	}
	select {
	case <-ch.Exited():
	case <-time.After(2 * time.Second):
		t.Error("process exit not observed")
	}
}
