package feature

import (
	"regexp"
	"strings"
)

// Ratio thresholds in percent for the content indicators. Below the first
// threshold the page looks legitimate, below the second it is ambiguous.
const (
	requestURLLow  = 22
	requestURLHigh = 61

	anchorURLLow  = 31
	anchorURLHigh = 67

	linksLow  = 17
	linksHigh = 81
)

var (
	mailPattern       = regexp.MustCompile(`(?i)mailto:|\bmail\s*\(`)
	statusBarPattern  = regexp.MustCompile(`(?i)window\.status\s*=`)
	rightClickPattern = regexp.MustCompile(`(?i)event\.button\s*==+\s*2|oncontextmenu\s*=\s*["']?\s*return\s+false|addEventListener\(\s*["']contextmenu["'][^)]*preventDefault`)
	popupPattern      = regexp.MustCompile(`(?i)window\.open\s*\(|\balert\s*\(`)
)

// contentIndicators computes the page-derived indicators. A nil page yields
// Neutral for every one of them.
func contentIndicators(parts *URLParts, page *Page) map[string]Value {
	if page == nil {
		return map[string]Value{
			NameFavicon:             Neutral,
			NameRequestURL:          Neutral,
			NameAnchorURL:           Neutral,
			NameLinksInScriptTags:   Neutral,
			NameServerFormHandler:   Neutral,
			NameInfoEmail:           Neutral,
			NameWebsiteForwarding:   Neutral,
			NameStatusBarCust:       Neutral,
			NameDisableRightClick:   Neutral,
			NameUsingPopupWindow:    Neutral,
			NameIframeRedirection:   Neutral,
			NameLinksPointingToPage: Neutral,
		}
	}

	base := parts.Host
	if page.URL != "" {
		if h := ParseURL(page.URL).Host; h != "" {
			base = h
		}
	}

	return map[string]Value{
		NameFavicon:             favicon(base, page.Favicons),
		NameRequestURL:          externalRatio(base, page.Media, requestURLLow, requestURLHigh),
		NameAnchorURL:           anchorURL(base, page.Anchors),
		NameLinksInScriptTags:   externalRatio(base, page.LinksAndScripts, linksLow, linksHigh),
		NameServerFormHandler:   serverFormHandler(base, page.FormActions),
		NameInfoEmail:           flag(mailPattern.MatchString(page.HTML)),
		NameWebsiteForwarding:   forwarding(page.Redirects),
		NameStatusBarCust:       flag(statusBarPattern.MatchString(page.HTML)),
		NameDisableRightClick:   flag(rightClickPattern.MatchString(page.HTML)),
		NameUsingPopupWindow:    flag(popupPattern.MatchString(page.HTML)),
		NameIframeRedirection:   flag(page.Frames > 0),
		NameLinksPointingToPage: linksPointing(len(page.Anchors)),
	}
}

// refHost returns the host a reference points to. Relative references point
// to base.
func refHost(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "//") || strings.Contains(strings.ToLower(ref), "://") {
		return ParseURL(ref).Host
	}
	return base
}

func isExternal(base, ref string) bool {
	return !sameSite(base, refHost(base, ref))
}

func favicon(base string, icons []string) Value {
	for _, icon := range icons {
		if isExternal(base, icon) {
			return Suspicious
		}
	}
	return Legitimate
}

func externalRatio(base string, refs []string, low, high float64) Value {
	if len(refs) == 0 {
		return Legitimate
	}
	external := 0
	for _, ref := range refs {
		if isExternal(base, ref) {
			external++
		}
	}
	return bucket(percent(external, len(refs)), low, high)
}

// anchorURL measures anchors that lead nowhere or off-site. A page without
// any anchor is suspicious, since cloned login pages usually strip them.
func anchorURL(base string, anchors []string) Value {
	if len(anchors) == 0 {
		return Suspicious
	}
	unsafe := 0
	for _, a := range anchors {
		lower := strings.ToLower(strings.TrimSpace(a))
		switch {
		case lower == "" || strings.HasPrefix(lower, "#"),
			strings.HasPrefix(lower, "javascript:"),
			strings.HasPrefix(lower, "mailto:"),
			isExternal(base, a):
			unsafe++
		}
	}
	return bucket(percent(unsafe, len(anchors)), anchorURLLow, anchorURLHigh)
}

func serverFormHandler(base string, actions []string) Value {
	if len(actions) == 0 {
		return Legitimate
	}
	result := Legitimate
	for _, action := range actions {
		a := strings.ToLower(strings.TrimSpace(action))
		if a == "" || a == "about:blank" {
			return Suspicious
		}
		if isExternal(base, action) {
			result = Neutral
		}
	}
	return result
}

func forwarding(redirects int) Value {
	switch {
	case redirects <= 1:
		return Legitimate
	case redirects <= 4:
		return Neutral
	default:
		return Suspicious
	}
}

func linksPointing(anchors int) Value {
	switch {
	case anchors == 0:
		return Suspicious
	case anchors <= 2:
		return Neutral
	default:
		return Legitimate
	}
}

func percent(part, total int) float64 {
	return float64(part) * 100 / float64(total)
}
