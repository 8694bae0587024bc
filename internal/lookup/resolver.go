package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/nao1215/phishscan/internal/feature"
)

// Resolver answers DNS queries for the DNSRecording and StatsReport
// indicators.
type Resolver struct {
	resolver *net.Resolver
}

// NewResolver creates a Resolver. An empty nameserver uses the system
// configuration; otherwise queries go to nameserver ("host:port") over UDP.
func NewResolver(nameserver string) *Resolver {
	if nameserver == "" {
		return &Resolver{resolver: net.DefaultResolver}
	}
	return &Resolver{
		resolver: &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
				d := net.Dialer{Timeout: 2 * time.Second}
				return d.DialContext(ctx, "udp", nameserver)
			},
		},
	}
}

// LookupHost implements feature.DNSLookup. NXDOMAIN is reported as
// feature.ErrNotFound; timeouts and server failures are returned as is.
func (r *Resolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	addrs, err := r.resolver.LookupHost(ctx, host)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, fmt.Errorf("%w: %s", feature.ErrNotFound, host)
		}
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s", feature.ErrNotFound, host)
	}
	return addrs, nil
}
