package feature

import (
	"context"
	"time"
)

// Page is the parsed view of a fetched web page that content indicators read.
// Implementations of PageFetcher fill it; the extractor never parses HTML
// itself.
type Page struct {
	// URL is the final URL after redirects.
	URL string

	// Redirects is the number of redirects followed to reach URL.
	Redirects int

	// HTML is the raw document, possibly truncated by the fetcher.
	HTML string

	// Favicons are the href values of <link rel="icon"> elements.
	Favicons []string

	// Media are the src values of img, audio, video, source and embed elements.
	Media []string

	// Anchors are the href values of <a> elements.
	Anchors []string

	// LinksAndScripts are the href values of <link> and the src values of
	// <script> elements.
	LinksAndScripts []string

	// FormActions are the action attributes of <form> elements. A form
	// without an action contributes an empty string.
	FormActions []string

	// Frames is the number of <iframe> and <frame> elements.
	Frames int
}

// Registration is the subset of a WHOIS record used by the indicators.
type Registration struct {
	// DomainName is the registered domain as reported by the registry.
	DomainName string

	// CreatedAt is the registration date. Zero when unknown.
	CreatedAt time.Time

	// ExpiresAt is the expiration date. Zero when unknown.
	ExpiresAt time.Time
}

// PageFetcher retrieves and parses the page behind a URL.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*Page, error)
}

// RegistrationLookup retrieves the registration record of a domain.
// It returns ErrNotFound when the registry has no record.
type RegistrationLookup interface {
	LookupRegistration(ctx context.Context, domain string) (*Registration, error)
}

// DNSLookup resolves a host to its addresses.
// It returns ErrNotFound for an authoritative NXDOMAIN answer.
type DNSLookup interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// TrafficRanker returns the popularity rank of a domain, 1 being the most
// visited. It returns ErrNotFound when the domain is not ranked.
type TrafficRanker interface {
	TrafficRank(ctx context.Context, domain string) (int, error)
}

// PageRanker returns the normalized page rank of a domain in [0, 1].
// It returns ErrNotFound when the source does not know the domain.
type PageRanker interface {
	PageRank(ctx context.Context, domain string) (float64, error)
}

// Blocklist reports whether a host, domain or IP address is listed as
// malicious.
type Blocklist interface {
	Listed(value string) bool
}
