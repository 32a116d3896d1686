package session

import (
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals end a session cleanly.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

// Notifier installs and removes signal delivery.
type Notifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal) error
	Stop(c chan<- os.Signal)
}

// OSNotifier delivers real process signals through os/signal.
type OSNotifier struct{}

func (OSNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) error {
	signal.Notify(c, sig...)
	return nil
}

func (OSNotifier) Stop(c chan<- os.Signal) { signal.Stop(c) }
