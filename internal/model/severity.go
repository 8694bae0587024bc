package model

import "github.com/nao1215/phishscan/internal/feature"

// Severity represents the risk level of a finding or of a verdict.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates a signal with little weight on its own.
	SeverityInfo Severity = iota

	// SeverityLow indicates a weak phishing signal.
	// Examples: pop-up windows, iframes, many redirects.
	SeverityLow

	// SeverityMedium indicates a moderate signal that warrants attention.
	// Examples: URL shorteners, hyphenated domains, missing HTTPS.
	SeverityMedium

	// SeverityHigh indicates a strong phishing signal.
	// Examples: IP-literal hosts, forms posting to blank handlers, fresh domains.
	SeverityHigh

	// SeverityCritical indicates the URL or its address is on a blocklist.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// RiskFromProbability maps the phishing probability of a verdict to a
// severity.
func RiskFromProbability(phishing float64) Severity {
	switch {
	case phishing >= 0.9:
		return SeverityCritical
	case phishing >= 0.7:
		return SeverityHigh
	case phishing >= 0.5:
		return SeverityMedium
	case phishing >= 0.3:
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// FindingInfo contains metadata about a suspicious indicator including
// severity, a title, impact description and a recommendation for the user.
type FindingInfo struct {
	Severity       Severity
	Title          string
	Impact         string
	Recommendation string
}

const (
	adviceCredentials = "Do not enter credentials or payment details on this page."
	adviceVerifyLink  = "Navigate to the service by typing its known address instead of following the link."
	adviceReport      = "Report the URL to your security team or the impersonated brand."
)

// findingInfoMapping maps indicator names to their metadata when the
// indicator is suspicious.
//
// Design decision: We use a map rather than embedding severity in the feature
// schema because:
// 1. It allows updating risk assessments without touching extraction
// 2. It provides a single source of truth for report wording
// 3. The schema stays a pure description of the model input
var findingInfoMapping = map[string]FindingInfo{
	feature.NameUsingIP: {
		Severity:       SeverityHigh,
		Title:          "IP Address Instead of Domain",
		Impact:         "The URL points to a raw IP address, which hides the operator and is rarely used by legitimate sites.",
		Recommendation: adviceVerifyLink,
	},
	feature.NameLongURL: {
		Severity:       SeverityLow,
		Title:          "Unusually Long URL",
		Impact:         "Long URLs are used to push the real destination out of view in the address bar.",
		Recommendation: adviceVerifyLink,
	},
	feature.NameShortURL: {
		Severity:       SeverityMedium,
		Title:          "URL Shortener",
		Impact:         "A shortening service hides the final destination of the link.",
		Recommendation: "Expand the short link with a preview service before opening it.",
	},
	feature.NameSymbolAt: {
		Severity:       SeverityHigh,
		Title:          "@ Symbol in URL",
		Impact:         "Browsers ignore everything before an @ in the authority, so the visible domain may not be the real one.",
		Recommendation: adviceVerifyLink,
	},
	feature.NameRedirecting: {
		Severity:       SeverityMedium,
		Title:          "Embedded Redirect",
		Impact:         "A second // inside the URL often redirects the visitor to another site.",
		Recommendation: adviceVerifyLink,
	},
	feature.NamePrefixSuffix: {
		Severity:       SeverityMedium,
		Title:          "Hyphenated Domain",
		Impact:         "Hyphens are used to imitate brands, as in paypal-secure-login.",
		Recommendation: adviceVerifyLink,
	},
	feature.NameSubDomains: {
		Severity:       SeverityMedium,
		Title:          "Many Subdomains",
		Impact:         "Stacked subdomains can place a trusted brand name in front of an unrelated registered domain.",
		Recommendation: "Check the registered domain right before the public suffix.",
	},
	feature.NameHTTPS: {
		Severity:       SeverityMedium,
		Title:          "No HTTPS",
		Impact:         "The connection is not encrypted and the site identity is not verified by a certificate.",
		Recommendation: adviceCredentials,
	},
	feature.NameDomainRegLen: {
		Severity:       SeverityMedium,
		Title:          "Short Domain Registration",
		Impact:         "The domain is registered for less than a year, typical of throwaway phishing domains.",
		Recommendation: adviceCredentials,
	},
	feature.NameFavicon: {
		Severity:       SeverityMedium,
		Title:          "Foreign Favicon",
		Impact:         "The page icon is loaded from another domain, a common trick to borrow a brand's look.",
		Recommendation: adviceCredentials,
	},
	feature.NameNonStdPort: {
		Severity:       SeverityMedium,
		Title:          "Non-Standard Port",
		Impact:         "The URL uses a port other than 80 or 443, which legitimate public sites rarely do.",
		Recommendation: adviceVerifyLink,
	},
	feature.NameHTTPSDomainURL: {
		Severity:       SeverityHigh,
		Title:          "HTTPS Token in Domain",
		Impact:         "The word https in the host name is meant to look like a secure connection.",
		Recommendation: adviceVerifyLink,
	},
	feature.NameRequestURL: {
		Severity:       SeverityMedium,
		Title:          "External Page Resources",
		Impact:         "Most images and media are loaded from other domains, as when a page copies a brand's site.",
		Recommendation: adviceCredentials,
	},
	feature.NameAnchorURL: {
		Severity:       SeverityHigh,
		Title:          "Dead or External Links",
		Impact:         "Most links on the page are empty, script-only or lead to other domains.",
		Recommendation: adviceCredentials,
	},
	feature.NameLinksInScriptTags: {
		Severity:       SeverityLow,
		Title:          "External Scripts and Styles",
		Impact:         "Most scripts and stylesheets come from other domains.",
		Recommendation: adviceCredentials,
	},
	feature.NameServerFormHandler: {
		Severity:       SeverityHigh,
		Title:          "Suspicious Form Handler",
		Impact:         "A form submits to a blank handler or to another domain, so entered data may be harvested.",
		Recommendation: adviceCredentials,
	},
	feature.NameInfoEmail: {
		Severity:       SeverityMedium,
		Title:          "Form Data Sent by Email",
		Impact:         "The page submits information to an email address.",
		Recommendation: adviceCredentials,
	},
	feature.NameAbnormalURL: {
		Severity:       SeverityMedium,
		Title:          "Registrant Does Not Match Host",
		Impact:         "The registration record names a domain that does not appear in the URL.",
		Recommendation: adviceVerifyLink,
	},
	feature.NameWebsiteForwarding: {
		Severity:       SeverityLow,
		Title:          "Many Redirects",
		Impact:         "The request was forwarded several times before reaching the page.",
		Recommendation: adviceVerifyLink,
	},
	feature.NameStatusBarCust: {
		Severity:       SeverityHigh,
		Title:          "Status Bar Manipulation",
		Impact:         "The page rewrites the status bar to hide where links really go.",
		Recommendation: adviceCredentials,
	},
	feature.NameDisableRightClick: {
		Severity:       SeverityMedium,
		Title:          "Right Click Disabled",
		Impact:         "The page blocks the context menu to prevent source inspection.",
		Recommendation: adviceCredentials,
	},
	feature.NameUsingPopupWindow: {
		Severity:       SeverityLow,
		Title:          "Pop-up Windows",
		Impact:         "The page opens pop-up windows or alerts, sometimes to collect credentials.",
		Recommendation: adviceCredentials,
	},
	feature.NameIframeRedirection: {
		Severity:       SeverityLow,
		Title:          "Invisible Frames",
		Impact:         "The page embeds frames that can display content from another site.",
		Recommendation: adviceCredentials,
	},
	feature.NameAgeofDomain: {
		Severity:       SeverityHigh,
		Title:          "Newly Registered Domain",
		Impact:         "The domain is less than six months old.",
		Recommendation: adviceCredentials,
	},
	feature.NameDNSRecording: {
		Severity:       SeverityHigh,
		Title:          "No DNS Record",
		Impact:         "The host has no DNS record or the domain is unknown to WHOIS.",
		Recommendation: adviceVerifyLink,
	},
	feature.NameWebsiteTraffic: {
		Severity:       SeverityMedium,
		Title:          "No Traffic Rank",
		Impact:         "The domain does not appear in the traffic ranking.",
		Recommendation: adviceVerifyLink,
	},
	feature.NamePageRank: {
		Severity:       SeverityLow,
		Title:          "Low Page Rank",
		Impact:         "Few sites link to this domain.",
		Recommendation: adviceVerifyLink,
	},
	feature.NameGoogleIndex: {
		Severity:       SeverityMedium,
		Title:          "Not Indexed",
		Impact:         "The domain is unknown to the ranking index.",
		Recommendation: adviceVerifyLink,
	},
	feature.NameLinksPointingToPage: {
		Severity:       SeverityLow,
		Title:          "No Links on Page",
		Impact:         "The page has no links, typical of single-purpose credential forms.",
		Recommendation: adviceCredentials,
	},
	feature.NameStatsReport: {
		Severity:       SeverityCritical,
		Title:          "Blocklisted Host",
		Impact:         "The host or one of its addresses is on a phishing blocklist.",
		Recommendation: adviceReport,
	},
}

// GetSeverity returns the severity of a suspicious indicator.
// Returns SeverityInfo if the indicator is not in the mapping.
func GetSeverity(indicator string) Severity {
	if info, ok := findingInfoMapping[indicator]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for an indicator.
// Returns a default FindingInfo with SeverityInfo if the indicator is not in
// the mapping.
func GetFindingInfo(indicator string) FindingInfo {
	if info, ok := findingInfoMapping[indicator]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Title:          indicator,
		Impact:         "Unknown indicator. Review manually.",
		Recommendation: "Investigate the indicator and assess risk.",
	}
}
