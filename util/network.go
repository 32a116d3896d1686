package util

import (
	"context"
	"fmt"
	"net"
	"strconv"

	ncerr "ircrelay/internal/errors"
)

// Resolver is the subset of [net.Resolver] used for host lookups.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// ResolveFirst returns the first address for host.  With noDNS only a
// numeric IP is accepted.  Failures come back as
// [ncerr.ResolutionError] and are never retried.
func ResolveFirst(ctx context.Context, r Resolver, host string, noDNS bool) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	if noDNS {
		return "", &ncerr.ResolutionError{
			Host: host,
			Err:  fmt.Errorf("not a numeric address (DNS disabled with -n)"),
		}
	}
	if r == nil {
		r = net.DefaultResolver
	}
	addrs, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", &ncerr.ResolutionError{Host: host, Err: err}
	}
	if len(addrs) == 0 {
		return "", &ncerr.ResolutionError{Host: host, Err: fmt.Errorf("no addresses")}
	}
	return addrs[0], nil
}

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
