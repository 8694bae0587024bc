package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/phishscan/internal/feature"
)

// Stub answers every capability from fixed tables. Names missing from a
// table are reported as feature.ErrNotFound. It is used for tests and for
// reproducible demonstrations without network access.
type Stub struct {
	Registrations map[string]*feature.Registration
	Hosts         map[string][]string
	Ranks         map[string]int
	PageRanks     map[string]float64
}

// LookupRegistration implements feature.RegistrationLookup.
func (s *Stub) LookupRegistration(_ context.Context, domain string) (*feature.Registration, error) {
	if reg, ok := s.Registrations[strings.ToLower(domain)]; ok {
		return reg, nil
	}
	return nil, fmt.Errorf("%w: %s", feature.ErrNotFound, domain)
}

// LookupHost implements feature.DNSLookup.
func (s *Stub) LookupHost(_ context.Context, host string) ([]string, error) {
	if addrs, ok := s.Hosts[strings.ToLower(host)]; ok {
		return addrs, nil
	}
	return nil, fmt.Errorf("%w: %s", feature.ErrNotFound, host)
}

// TrafficRank implements feature.TrafficRanker.
func (s *Stub) TrafficRank(_ context.Context, domain string) (int, error) {
	if rank, ok := s.Ranks[strings.ToLower(domain)]; ok {
		return rank, nil
	}
	return 0, fmt.Errorf("%w: %s", feature.ErrNotFound, domain)
}

// PageRank implements feature.PageRanker.
func (s *Stub) PageRank(_ context.Context, domain string) (float64, error) {
	if rank, ok := s.PageRanks[strings.ToLower(domain)]; ok {
		return rank, nil
	}
	return 0, fmt.Errorf("%w: %s", feature.ErrNotFound, domain)
}

// Options returns extractor options wiring every capability of s.
func (s *Stub) Options() []feature.Option {
	return []feature.Option{
		feature.WithRegistrationLookup(s),
		feature.WithDNSLookup(s),
		feature.WithTrafficRank(s),
		feature.WithPageRank(s),
	}
}
