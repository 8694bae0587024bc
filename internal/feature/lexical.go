package feature

import (
	"strings"
)

// DefaultShortenerHosts lists well-known URL shortening services.
var DefaultShortenerHosts = []string{
	"bit.ly", "goo.gl", "tinyurl.com", "t.co", "is.gd", "ow.ly", "cutt.ly",
	"rebrand.ly", "shorturl.at", "buff.ly", "adf.ly", "bitly.com", "tiny.cc",
	"lnkd.in", "db.tt", "qr.ae", "bit.do", "t2m.io", "x.co", "tr.im",
	"cli.gs", "v.gd", "po.st", "bc.vc", "twitthis.com", "u.to", "j.mp",
	"buzurl.com", "cutt.us", "u.bb", "yourls.org", "prettylinkpro.com",
	"scrnch.me", "filoops.info", "vzturl.com", "qr.net", "1url.com",
	"tweez.me", "v.ht", "link.zip.net", "s.id", "rb.gy", "shorte.st",
	"tiny.one", "soo.gd", "clck.ru", "short.io",
}

// URL length thresholds. URLs of 54 characters or more start looking
// suspicious; beyond 75 they are treated as phishing.
const (
	longURLNeutral    = 54
	longURLSuspicious = 75
)

// lexicalIndicators computes every lexical indicator of parts.
func lexicalIndicators(parts *URLParts, shorteners []string) map[string]Value {
	return map[string]Value{
		NameUsingIP:        usingIP(parts),
		NameLongURL:        longURL(parts.Raw),
		NameShortURL:       flag(isShortener(parts.Host, shorteners)),
		NameSymbolAt:       flag(strings.Contains(parts.Raw, "@")),
		NameRedirecting:    flag(strings.LastIndex(parts.Raw, "//") > 6),
		NamePrefixSuffix:   flag(strings.Contains(parts.Host, "-")),
		NameSubDomains:     subDomains(parts),
		NameHTTPS:          https(parts),
		NameNonStdPort:     flag(parts.Port != "" && parts.Port != "80" && parts.Port != "443"),
		NameHTTPSDomainURL: flag(strings.Contains(parts.Host, "https")),
	}
}

// usingIP flags an IP literal host, and also an IP literal placed in the
// userinfo part where browsers show it to the user as if it were the host.
func usingIP(parts *URLParts) Value {
	if parts.IsIP {
		return Suspicious
	}
	user, _, _ := strings.Cut(parts.UserInfo, ":")
	return flag(isIPLiteral(strings.ToLower(user)))
}

func longURL(raw string) Value {
	n := len(raw)
	switch {
	case n < longURLNeutral:
		return Legitimate
	case n <= longURLSuspicious:
		return Neutral
	default:
		return Suspicious
	}
}

func isShortener(host string, shorteners []string) bool {
	if host == "" {
		return false
	}
	host = strings.TrimPrefix(host, "www.")
	for _, s := range shorteners {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

// subDomains counts the labels left of the registered domain, ignoring a
// leading "www".
func subDomains(parts *URLParts) Value {
	if parts.IsIP {
		return Suspicious
	}
	sub := parts.Subdomain
	if sub == "www" {
		sub = ""
	}
	sub = strings.TrimPrefix(sub, "www.")
	labels := 0
	if sub != "" {
		labels = strings.Count(sub, ".") + 1
	}
	switch {
	case labels == 0:
		return Legitimate
	case labels == 1:
		return Neutral
	default:
		return Suspicious
	}
}

func https(parts *URLParts) Value {
	if parts.Scheme == "https" {
		return Legitimate
	}
	return Suspicious
}
