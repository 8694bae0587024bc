package lookup

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/phishscan/internal/feature"
)

// RateLimitedRegistration spaces WHOIS queries. Registries block clients
// that send bursts, which would turn every later lookup into a failure.
type RateLimitedRegistration struct {
	next    feature.RegistrationLookup
	limiter *rate.Limiter
}

// NewRateLimitedRegistration allows one query per interval with the given
// burst.
func NewRateLimitedRegistration(next feature.RegistrationLookup, interval time.Duration, burst int) *RateLimitedRegistration {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimitedRegistration{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// LookupRegistration implements feature.RegistrationLookup. Waiting for a
// token honours ctx, so a query that cannot start before the reputation
// timeout fails fast instead of queueing.
func (r *RateLimitedRegistration) LookupRegistration(ctx context.Context, domain string) (*feature.Registration, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.LookupRegistration(ctx, domain)
}
