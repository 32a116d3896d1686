package relay

import "time"

// sleep waits for timeout or wake, whichever comes first.
func sleep(timeout time.Duration, wake <-chan struct{}) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-t.C:
	case <-wake:
	}
	return nil
}
