package feature

import (
	"errors"
	"strings"
	"time"
)

const (
	minDomainAge         = 180 * 24 * time.Hour
	minRegistrationSpan  = 365 * 24 * time.Hour
	popularRankThreshold = 100000
	lowPageRank          = 0.2
)

// lookupResults collects the raw answers of the concurrent lookups. Every
// field pair is written by exactly one goroutine.
type lookupResults struct {
	page    *Page
	pageErr error

	registration    *Registration
	registrationErr error

	addrs  []string
	dnsErr error

	rank    int
	rankErr error

	pageRank    float64
	pageRankErr error
}

// registrationIndicators computes the indicators backed by the WHOIS record.
func registrationIndicators(parts *URLParts, res *lookupResults, now time.Time) map[string]Value {
	out := map[string]Value{
		NameDomainRegLen: Neutral,
		NameAbnormalURL:  Neutral,
		NameAgeofDomain:  Neutral,
	}

	if parts.IsIP {
		// An IP literal has no registration record by construction.
		out[NameAbnormalURL] = Suspicious
		out[NameAgeofDomain] = Suspicious
		out[NameDomainRegLen] = Suspicious
		return out
	}

	switch {
	case errors.Is(res.registrationErr, ErrNotFound):
		out[NameDomainRegLen] = Suspicious
		out[NameAbnormalURL] = Suspicious
		out[NameAgeofDomain] = Suspicious
		return out
	case res.registrationErr != nil, res.registration == nil:
		return out
	}

	reg := res.registration
	if name := strings.ToLower(strings.TrimSuffix(reg.DomainName, ".")); name != "" {
		out[NameAbnormalURL] = flag(!strings.Contains(parts.Host, name))
	}
	if !reg.CreatedAt.IsZero() {
		out[NameAgeofDomain] = flag(now.Sub(reg.CreatedAt) < minDomainAge)
		if !reg.ExpiresAt.IsZero() {
			out[NameDomainRegLen] = flag(reg.ExpiresAt.Sub(reg.CreatedAt) < minRegistrationSpan)
		}
	}
	return out
}

// dnsIndicators computes DNSRecording and StatsReport.
func dnsIndicators(parts *URLParts, res *lookupResults, blocklist Blocklist, dnsEnabled bool) map[string]Value {
	out := map[string]Value{
		NameDNSRecording: Neutral,
		NameStatsReport:  Neutral,
	}

	switch {
	case parts.IsIP:
		out[NameDNSRecording] = Suspicious
	case !dnsEnabled:
	case res.dnsErr == nil:
		out[NameDNSRecording] = Legitimate
	case errors.Is(res.dnsErr, ErrNotFound):
		out[NameDNSRecording] = Suspicious
	}

	if blocklist == nil {
		return out
	}
	if blocklist.Listed(parts.Host) || blocklist.Listed(parts.RegisteredDomain) {
		out[NameStatsReport] = Suspicious
		return out
	}
	if !dnsEnabled || res.dnsErr != nil {
		return out
	}
	for _, addr := range res.addrs {
		if blocklist.Listed(addr) {
			out[NameStatsReport] = Suspicious
			return out
		}
	}
	out[NameStatsReport] = Legitimate
	return out
}

// rankIndicators computes WebsiteTraffic, PageRank and GoogleIndex.
func rankIndicators(res *lookupResults, trafficEnabled, pageRankEnabled bool) map[string]Value {
	out := map[string]Value{
		NameWebsiteTraffic: Neutral,
		NamePageRank:       Neutral,
		NameGoogleIndex:    Neutral,
	}

	if trafficEnabled {
		switch {
		case errors.Is(res.rankErr, ErrNotFound):
			out[NameWebsiteTraffic] = Suspicious
		case res.rankErr != nil:
		case res.rank > 0 && res.rank < popularRankThreshold:
			out[NameWebsiteTraffic] = Legitimate
		}
	}

	if pageRankEnabled {
		switch {
		case errors.Is(res.pageRankErr, ErrNotFound):
			out[NamePageRank] = Suspicious
			out[NameGoogleIndex] = Suspicious
		case res.pageRankErr != nil:
		default:
			out[NamePageRank] = flag(res.pageRank < lowPageRank)
			out[NameGoogleIndex] = Legitimate
		}
	}
	return out
}
