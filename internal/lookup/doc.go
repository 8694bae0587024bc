// Package lookup implements the reputation capabilities used by the feature
// extractor: WHOIS registration records, DNS resolution, traffic ranking,
// page rank and blocklists.
//
// Every type here satisfies one of the capability interfaces declared in the
// feature package. Authoritative negative answers are reported as
// feature.ErrNotFound so that the extractor can tell "this domain does not
// exist" apart from "the lookup failed".
//
// # Decorators
//
// Lookups are slow and some services (WHOIS in particular) throttle clients
// aggressively. Two decorators are provided:
//
//   - RateLimitedRegistration spaces WHOIS queries with a token bucket.
//   - CachedRegistration, CachedDNS and CachedPageRank add an expiring LRU
//     cache. Negative answers are cached as well; transport errors are not.
//
// # Usage
//
//	whois := lookup.NewWhoisClient(lookup.WithWhoisTimeout(5 * time.Second))
//	registration := lookup.NewCachedRegistration(
//	    lookup.NewRateLimitedRegistration(whois, time.Second, 1),
//	    1024, 24*time.Hour,
//	)
package lookup
