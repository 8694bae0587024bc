// Package feature converts a URL into the fixed-order indicator vector consumed
// by the phishing classifier.
//
// # Indicator Categories
//
// Every position of the vector is one quantized indicator with the values
// Legitimate (1), Neutral (0) and Suspicious (-1). Indicators fall into three
// categories:
//
//   - Lexical: pure functions of the URL string (IP-literal host, length,
//     shorteners, "@", "//" redirection, hyphenated domain, subdomain count,
//     HTTPS, "https" token in the host, non-standard port).
//   - Host: derived from the fetched page and its registration record
//     (favicon origin, request/anchor/script ratios, form handlers, mailto,
//     forwarding, status bar tampering, right-click suppression, pop-ups,
//     iframes, registration length).
//   - Reputation: derived from external lookups (domain age, DNS records,
//     traffic rank, page rank, index membership, inbound links, blocklists).
//
// # Schema
//
// The order of indicators is owned by Schema. DefaultSchema is the only order
// used by training, inference and the dataset loader, so the dataset columns,
// the artifact and the extractor output can never disagree silently.
//
// # Degrade to Neutral
//
// Host and reputation indicators depend on capabilities injected into the
// Extractor (PageFetcher, RegistrationLookup, DNSLookup, TrafficRanker,
// PageRanker, Blocklist). A missing capability, a failed lookup or a timeout
// resolves only the affected indicators to Neutral; extraction always returns
// a complete vector. Lexical indicators are deterministic. Host and
// reputation indicators are best effort and may drift between calls, so
// predictions for the same URL can change over time.
//
// # Usage
//
//	extractor := feature.NewExtractor(
//	    feature.WithPageFetcher(fetchClient),
//	    feature.WithRegistrationLookup(whoisClient),
//	)
//	vector, err := extractor.Extract(ctx, "https://accounts.google.com/signin")
package feature
