package feature

import (
	"net"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// URLParts is the tolerant decomposition of a raw URL.
//
// Design decision: We do not rely on net/url alone because phishing URLs are
// frequently malformed on purpose (missing scheme, userinfo decoys, invalid
// escapes). url.Parse rejects many of them, while every lexical indicator
// must still be computable. ParseURL never fails; missing parts stay empty.
type URLParts struct {
	// Raw is the trimmed input string.
	Raw string

	// Scheme is the lowercased scheme, empty when the input has none.
	Scheme string

	// UserInfo is the part of the authority before the last "@".
	UserInfo string

	// Host is the lowercased hostname without port. IDN hosts are converted
	// to their ASCII form when possible.
	Host string

	// Port is the explicit port, empty when absent.
	Port string

	// Path is the path component including the leading slash.
	Path string

	// Query is the raw query string without "?".
	Query string

	// IsIP reports whether Host is an IP literal in any notation.
	IsIP bool

	// RegisteredDomain is the eTLD+1 of Host, or Host itself when it cannot
	// be determined.
	RegisteredDomain string

	// Subdomain is the part of Host left of RegisteredDomain.
	Subdomain string

	// Tokens are the lowercased alphanumeric tokens of the path and query.
	Tokens []string
}

// ParseURL decomposes raw into URLParts. It never fails.
func ParseURL(raw string) *URLParts {
	s := strings.TrimSpace(raw)
	p := &URLParts{Raw: s}

	rest := s
	if i := strings.Index(rest, "://"); i > 0 && isSchemeName(rest[:i]) {
		p.Scheme = strings.ToLower(rest[:i])
		rest = rest[i+3:]
	} else if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
	}

	authority, tail := rest, ""
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		authority, tail = rest[:end], rest[end:]
	}

	if at := strings.LastIndex(authority, "@"); at >= 0 {
		p.UserInfo = authority[:at]
		authority = authority[at+1:]
	}

	host, port := splitHostPort(authority)
	p.Host = normalizeHost(host)
	p.Port = port

	if i := strings.Index(tail, "#"); i >= 0 {
		tail = tail[:i]
	}
	if i := strings.Index(tail, "?"); i >= 0 {
		p.Query = tail[i+1:]
		tail = tail[:i]
	}
	p.Path = tail

	p.IsIP = isIPLiteral(p.Host)
	p.RegisteredDomain, p.Subdomain = splitDomain(p.Host, p.IsIP)
	p.Tokens = tokenize(p.Path + " " + p.Query)

	return p
}

// HasHost reports whether a host could be extracted.
func (p *URLParts) HasHost() bool {
	return p.Host != ""
}

// FetchURL returns an absolute URL suitable for fetching the page. A missing
// scheme defaults to http.
func (p *URLParts) FetchURL() string {
	if p.Scheme == "http" || p.Scheme == "https" {
		return p.Raw
	}
	raw := strings.TrimPrefix(p.Raw, "//")
	if p.Scheme != "" {
		return raw
	}
	return "http://" + raw
}

// isSchemeName checks the RFC 3986 scheme grammar.
func isSchemeName(s string) bool {
	for i, r := range s {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return s != ""
}

// splitHostPort splits an authority into host and numeric port. Unlike
// net.SplitHostPort it accepts a missing port and bare IPv6 literals.
func splitHostPort(authority string) (string, string) {
	if strings.HasPrefix(authority, "[") {
		end := strings.Index(authority, "]")
		if end < 0 {
			return strings.TrimPrefix(authority, "["), ""
		}
		host := authority[1:end]
		rest := authority[end+1:]
		if strings.HasPrefix(rest, ":") && isDigits(rest[1:]) {
			return host, rest[1:]
		}
		return host, ""
	}

	// More than one colon without brackets is an IPv6 literal without port.
	if strings.Count(authority, ":") > 1 {
		return authority, ""
	}

	if i := strings.LastIndex(authority, ":"); i >= 0 {
		if port := authority[i+1:]; isDigits(port) {
			return authority[:i], port
		}
		return authority[:i], ""
	}
	return authority, ""
}

func normalizeHost(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || net.ParseIP(host) != nil {
		return host
	}
	if ascii, err := idna.ToASCII(host); err == nil && ascii != "" {
		return ascii
	}
	return host
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isIPLiteral reports whether host is an IP address in dotted, hexadecimal,
// octal or integer notation. Browsers accept all of them, which is why
// phishing URLs use the unusual forms to hide an address.
func isIPLiteral(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}

	parts := strings.Split(host, ".")
	if len(parts) > 4 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
		if _, err := strconv.ParseUint(part, 0, 32); err != nil {
			return false
		}
	}
	return true
}

// splitDomain returns the registered domain and the subdomain of host.
func splitDomain(host string, isIP bool) (string, string) {
	if host == "" || isIP || !strings.Contains(host, ".") {
		return host, ""
	}
	registered, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host, ""
	}
	sub := strings.TrimSuffix(strings.TrimSuffix(host, registered), ".")
	return registered, sub
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return fields
}

// sameSite reports whether two hosts share a registered domain.
func sameSite(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.EqualFold(a, b) {
		return true
	}
	ra, _ := splitDomain(strings.ToLower(a), isIPLiteral(a))
	rb, _ := splitDomain(strings.ToLower(b), isIPLiteral(b))
	return ra == rb
}
