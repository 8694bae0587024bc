package feature

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Default per-category lookup timeouts.
const (
	DefaultContentTimeout    = 10 * time.Second
	DefaultReputationTimeout = 8 * time.Second
)

// Extractor converts URLs into feature vectors.
//
// Design decision: All network access goes through the capability interfaces
// so that:
//  1. Tests can run the full extraction deterministically with stubs
//  2. Offline mode is simply an Extractor without capabilities
//  3. Each capability can be cached or rate limited independently
//
// An Extractor is safe for concurrent use once constructed.
type Extractor struct {
	schema *Schema

	pages        PageFetcher
	registration RegistrationLookup
	dns          DNSLookup
	traffic      TrafficRanker
	pageRank     PageRanker
	blocklist    Blocklist

	shorteners []string

	contentTimeout    time.Duration
	reputationTimeout time.Duration

	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPageFetcher enables the page-derived indicators.
func WithPageFetcher(f PageFetcher) Option {
	return func(e *Extractor) {
		e.pages = f
	}
}

// WithRegistrationLookup enables the WHOIS-derived indicators.
func WithRegistrationLookup(r RegistrationLookup) Option {
	return func(e *Extractor) {
		e.registration = r
	}
}

// WithDNSLookup enables DNSRecording and the resolved-address part of
// StatsReport.
func WithDNSLookup(d DNSLookup) Option {
	return func(e *Extractor) {
		e.dns = d
	}
}

// WithTrafficRank enables WebsiteTraffic.
func WithTrafficRank(t TrafficRanker) Option {
	return func(e *Extractor) {
		e.traffic = t
	}
}

// WithPageRank enables PageRank and GoogleIndex.
func WithPageRank(p PageRanker) Option {
	return func(e *Extractor) {
		e.pageRank = p
	}
}

// WithBlocklist enables StatsReport.
func WithBlocklist(b Blocklist) Option {
	return func(e *Extractor) {
		e.blocklist = b
	}
}

// WithShortenerHosts adds hosts to the built-in shortener list.
func WithShortenerHosts(hosts ...string) Option {
	return func(e *Extractor) {
		for _, h := range hosts {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				e.shorteners = append(e.shorteners, h)
			}
		}
	}
}

// WithContentTimeout bounds the page fetch.
func WithContentTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.contentTimeout = d
		}
	}
}

// WithReputationTimeout bounds each reputation lookup.
func WithReputationTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.reputationTimeout = d
		}
	}
}

// WithClock overrides the time source used for domain age checks.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger used to report degraded lookups.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor. Without options it computes the lexical
// indicators only and resolves everything else to Neutral.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		schema:            DefaultSchema(),
		shorteners:        append([]string(nil), DefaultShortenerHosts...),
		contentTimeout:    DefaultContentTimeout,
		reputationTimeout: DefaultReputationTimeout,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Schema returns the schema the extractor produces vectors for.
func (e *Extractor) Schema() *Schema {
	return e.schema
}

// Extract computes the full feature vector of rawURL.
//
// Lookups run concurrently, each under its own timeout derived from ctx.
// A failed, cancelled or timed out lookup only resolves the indicators that
// depend on it to Neutral, so the only errors returned are ErrEmptyURL and
// ErrVectorLength.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (Vector, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, ErrEmptyURL
	}

	parts := ParseURL(rawURL)
	res := e.lookup(ctx, parts)

	values := lexicalIndicators(parts, e.shorteners)
	maps.Copy(values, contentIndicators(parts, res.page))
	maps.Copy(values, registrationIndicators(parts, res, e.now()))
	maps.Copy(values, dnsIndicators(parts, res, e.blocklist, e.dns != nil))
	maps.Copy(values, rankIndicators(res, e.traffic != nil, e.pageRank != nil))

	return e.assemble(values)
}

// ExtractLexical computes the lexical indicators of rawURL without any
// lookup. Every other indicator is Neutral. The result is deterministic.
func (e *Extractor) ExtractLexical(rawURL string) (Vector, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, ErrEmptyURL
	}
	values := lexicalIndicators(ParseURL(rawURL), e.shorteners)
	for _, name := range e.schema.Names() {
		if _, ok := values[name]; !ok {
			values[name] = Neutral
		}
	}
	return e.assemble(values)
}

// ExtractAny is Extract for dynamically typed input such as decoded JSON or
// list entries. Non-string input fails with ErrNotString.
func (e *Extractor) ExtractAny(ctx context.Context, input any) (Vector, error) {
	s, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotString, input)
	}
	return e.Extract(ctx, s)
}

// assemble lays values out in schema order.
func (e *Extractor) assemble(values map[string]Value) (Vector, error) {
	if len(values) != e.schema.Len() {
		return nil, fmt.Errorf("%w: computed %d indicators for %d positions",
			ErrVectorLength, len(values), e.schema.Len())
	}
	vector := make(Vector, e.schema.Len())
	for i, name := range e.schema.Names() {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("%w: no value for %s", ErrVectorLength, name)
		}
		vector[i] = v
	}
	return vector, nil
}

// lookup runs every configured capability concurrently.
//
// Design decision: Goroutines never return an error to the group. A lookup
// failure is data (it neutralizes indicators), not a reason to cancel the
// sibling lookups, so each goroutine records its outcome and returns nil.
func (e *Extractor) lookup(ctx context.Context, parts *URLParts) *lookupResults {
	res := &lookupResults{}
	if !parts.HasHost() {
		return res
	}

	var g errgroup.Group
	domain := parts.RegisteredDomain

	if e.pages != nil {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, e.contentTimeout)
			defer cancel()
			res.page, res.pageErr = e.pages.FetchPage(cctx, parts.FetchURL())
			e.degraded("page", parts.Host, res.pageErr)
			return nil
		})
	}

	if e.registration != nil && !parts.IsIP {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, e.reputationTimeout)
			defer cancel()
			res.registration, res.registrationErr = e.registration.LookupRegistration(cctx, domain)
			e.degraded("registration", domain, res.registrationErr)
			return nil
		})
	}

	if e.dns != nil && !parts.IsIP {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, e.reputationTimeout)
			defer cancel()
			res.addrs, res.dnsErr = e.dns.LookupHost(cctx, parts.Host)
			e.degraded("dns", parts.Host, res.dnsErr)
			return nil
		})
	}

	if e.traffic != nil {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, e.reputationTimeout)
			defer cancel()
			res.rank, res.rankErr = e.traffic.TrafficRank(cctx, domain)
			e.degraded("traffic-rank", domain, res.rankErr)
			return nil
		})
	}

	if e.pageRank != nil {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, e.reputationTimeout)
			defer cancel()
			res.pageRank, res.pageRankErr = e.pageRank.PageRank(cctx, domain)
			e.degraded("page-rank", domain, res.pageRankErr)
			return nil
		})
	}

	_ = g.Wait()
	return res
}

func (e *Extractor) degraded(capability, target string, err error) {
	if err == nil {
		return
	}
	e.logger.Debug("lookup degraded",
		"capability", capability,
		"target", target,
		"error", err,
	)
}
