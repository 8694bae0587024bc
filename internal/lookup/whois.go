package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"golang.org/x/net/publicsuffix"

	"github.com/nao1215/phishscan/internal/feature"
)

// dateLayouts are the creation/expiry formats seen across registries.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"2006/01/02",
	"02.01.2006",
	"January 2 2006",
}

// WhoisClient looks up registration records over the WHOIS protocol.
type WhoisClient struct {
	// query returns the raw WHOIS text for a domain.
	query func(domain string) (string, error)
}

// WhoisOption configures a WhoisClient.
type WhoisOption func(*whoisSettings)

type whoisSettings struct {
	timeout time.Duration
	query   func(domain string) (string, error)
}

// WithWhoisTimeout sets the connection timeout of each WHOIS query.
func WithWhoisTimeout(d time.Duration) WhoisOption {
	return func(s *whoisSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithWhoisQuery replaces the network query, which lets tests feed canned
// WHOIS responses through the real parser.
func WithWhoisQuery(query func(domain string) (string, error)) WhoisOption {
	return func(s *whoisSettings) {
		s.query = query
	}
}

// NewWhoisClient creates a WhoisClient.
func NewWhoisClient(opts ...WhoisOption) *WhoisClient {
	s := &whoisSettings{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	if s.query == nil {
		client := whois.NewClient().SetTimeout(s.timeout)
		s.query = func(domain string) (string, error) {
			return client.Whois(domain)
		}
	}
	return &WhoisClient{query: s.query}
}

// LookupRegistration implements feature.RegistrationLookup.
//
// When the record of a subdomain cannot be parsed its registrable domain is
// tried, because some registries only answer for the registered name. A
// "no match" answer is final and maps to feature.ErrNotFound.
//
// Design decision: The WHOIS library has no context support, so the query
// runs in its own goroutine and we stop waiting when ctx is done. The
// goroutine finishes on its own when the library timeout fires.
func (c *WhoisClient) LookupRegistration(ctx context.Context, domain string) (*feature.Registration, error) {
	domain = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
	if domain == "" {
		return nil, feature.ErrNotFound
	}

	type answer struct {
		reg *feature.Registration
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		reg, err := c.lookup(domain)
		ch <- answer{reg: reg, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case a := <-ch:
		return a.reg, a.err
	}
}

func (c *WhoisClient) lookup(domain string) (*feature.Registration, error) {
	raw, err := c.query(domain)
	if err != nil {
		return nil, fmt.Errorf("whois query for %s: %w", domain, err)
	}

	info, err := whoisparser.Parse(raw)
	if err == nil && info.Domain != nil {
		return toRegistration(domain, info.Domain), nil
	}
	// A definite "no match" is the answer; a parent record would describe
	// someone else's registration.
	if errors.Is(err, whoisparser.ErrNotFoundDomain) {
		return nil, fmt.Errorf("%w: %s", feature.ErrNotFound, domain)
	}

	if parent, ok := registeredParent(domain); ok {
		return c.lookup(parent)
	}
	if err == nil {
		err = ErrUnexpectedResponse
	}
	return nil, fmt.Errorf("whois parse for %s: %w", domain, err)
}

func toRegistration(domain string, d *whoisparser.Domain) *feature.Registration {
	name := d.Domain
	if name == "" {
		name = domain
	}
	return &feature.Registration{
		DomainName: strings.ToLower(name),
		CreatedAt:  parseDate(d.CreatedDate),
		ExpiresAt:  parseDate(d.ExpirationDate),
	}
}

// parseDate tries each known layout and returns the zero time when none
// matches.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// registeredParent returns the registrable name (eTLD+1) above domain. It
// never climbs into a public suffix, so hosts under github.io or co.uk
// are not answered with the record of the suffix operator.
func registeredParent(domain string) (string, bool) {
	registered, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil || registered == domain {
		return "", false
	}
	return registered, true
}
