package feature

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Indicator names in canonical order. The names match the column headers of
// the phishing dataset so that dataset columns can be mapped by name.
const (
	NameUsingIP             = "UsingIP"
	NameLongURL             = "LongURL"
	NameShortURL            = "ShortURL"
	NameSymbolAt            = "Symbol@"
	NameRedirecting         = "Redirecting//"
	NamePrefixSuffix        = "PrefixSuffix-"
	NameSubDomains          = "SubDomains"
	NameHTTPS               = "HTTPS"
	NameDomainRegLen        = "DomainRegLen"
	NameFavicon             = "Favicon"
	NameNonStdPort          = "NonStdPort"
	NameHTTPSDomainURL      = "HTTPSDomainURL"
	NameRequestURL          = "RequestURL"
	NameAnchorURL           = "AnchorURL"
	NameLinksInScriptTags   = "LinksInScriptTags"
	NameServerFormHandler   = "ServerFormHandler"
	NameInfoEmail           = "InfoEmail"
	NameAbnormalURL         = "AbnormalURL"
	NameWebsiteForwarding   = "WebsiteForwarding"
	NameStatusBarCust       = "StatusBarCust"
	NameDisableRightClick   = "DisableRightClick"
	NameUsingPopupWindow    = "UsingPopupWindow"
	NameIframeRedirection   = "IframeRedirection"
	NameAgeofDomain         = "AgeofDomain"
	NameDNSRecording        = "DNSRecording"
	NameWebsiteTraffic      = "WebsiteTraffic"
	NamePageRank            = "PageRank"
	NameGoogleIndex         = "GoogleIndex"
	NameLinksPointingToPage = "LinksPointingToPage"
	NameStatsReport         = "StatsReport"
)

// Category groups indicators by what they need to be computed.
type Category int

const (
	// CategoryLexical indicators are pure functions of the URL string.
	CategoryLexical Category = iota

	// CategoryHost indicators need the fetched page or registration record.
	CategoryHost

	// CategoryReputation indicators need external reputation lookups.
	CategoryReputation
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryLexical:
		return "lexical"
	case CategoryHost:
		return "host"
	case CategoryReputation:
		return "reputation"
	default:
		return "unknown"
	}
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name written by MarshalText.
func (c *Category) UnmarshalText(text []byte) error {
	switch string(text) {
	case "lexical":
		*c = CategoryLexical
	case "host":
		*c = CategoryHost
	case "reputation":
		*c = CategoryReputation
	default:
		return fmt.Errorf("unknown indicator category %q", text)
	}
	return nil
}

// Capability identifies the lookup an indicator depends on.
type Capability int

const (
	// RequiresNothing marks lexical indicators.
	RequiresNothing Capability = iota
	// RequiresPage marks indicators computed from the fetched page.
	RequiresPage
	// RequiresRegistration marks indicators computed from WHOIS data.
	RequiresRegistration
	// RequiresDNS marks indicators computed from DNS resolution.
	RequiresDNS
	// RequiresTrafficRank marks indicators computed from a traffic ranking.
	RequiresTrafficRank
	// RequiresPageRank marks indicators computed from a page-rank source.
	RequiresPageRank
)

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case RequiresNothing:
		return "none"
	case RequiresPage:
		return "page"
	case RequiresRegistration:
		return "registration"
	case RequiresDNS:
		return "dns"
	case RequiresTrafficRank:
		return "traffic-rank"
	case RequiresPageRank:
		return "page-rank"
	default:
		return "unknown"
	}
}

// IndicatorSpec describes one position of the feature vector.
type IndicatorSpec struct {
	// Index is the position of the indicator in the vector.
	Index int

	// Name is the indicator name, identical to the dataset column header.
	Name string

	// Category is the indicator category.
	Category Category

	// Domain lists the values the indicator can take.
	Domain []Value

	// Requires is the capability the indicator depends on.
	Requires Capability
}

// Allows reports whether v belongs to the indicator's domain.
func (s IndicatorSpec) Allows(v Value) bool {
	return slices.Contains(s.Domain, v)
}

// Schema is the ordered, immutable list of indicators.
//
// Design decision: The schema is an explicit object shared by the dataset
// loader, the trainer, the artifact and the extractor rather than an implicit
// column convention. A reordering is detected through Fingerprint when an
// artifact is loaded instead of silently corrupting predictions.
type Schema struct {
	specs []IndicatorSpec
	index map[string]int
}

// NewSchema builds a Schema from specs. Indices are assigned from the slice
// order; names must be unique and every spec needs a non-empty domain.
func NewSchema(specs []IndicatorSpec) (*Schema, error) {
	if len(specs) == 0 {
		return nil, errors.New("schema has no indicators")
	}

	s := &Schema{
		specs: make([]IndicatorSpec, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	for i, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("indicator %d has no name", i)
		}
		if _, dup := s.index[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate indicator %q", spec.Name)
		}
		if len(spec.Domain) == 0 {
			return nil, fmt.Errorf("indicator %q has an empty domain", spec.Name)
		}
		spec.Index = i
		spec.Domain = slices.Clone(spec.Domain)
		s.specs[i] = spec
		s.index[spec.Name] = i
	}
	return s, nil
}

var (
	binary  = []Value{Suspicious, Legitimate}
	ternary = []Value{Suspicious, Neutral, Legitimate}
)

// defaultSchema is built once; DefaultSchema never fails at runtime.
var defaultSchema = mustSchema([]IndicatorSpec{
	{Name: NameUsingIP, Category: CategoryLexical, Domain: binary, Requires: RequiresNothing},
	{Name: NameLongURL, Category: CategoryLexical, Domain: ternary, Requires: RequiresNothing},
	{Name: NameShortURL, Category: CategoryLexical, Domain: binary, Requires: RequiresNothing},
	{Name: NameSymbolAt, Category: CategoryLexical, Domain: binary, Requires: RequiresNothing},
	{Name: NameRedirecting, Category: CategoryLexical, Domain: binary, Requires: RequiresNothing},
	{Name: NamePrefixSuffix, Category: CategoryLexical, Domain: binary, Requires: RequiresNothing},
	{Name: NameSubDomains, Category: CategoryLexical, Domain: ternary, Requires: RequiresNothing},
	{Name: NameHTTPS, Category: CategoryLexical, Domain: ternary, Requires: RequiresNothing},
	{Name: NameDomainRegLen, Category: CategoryHost, Domain: ternary, Requires: RequiresRegistration},
	{Name: NameFavicon, Category: CategoryHost, Domain: ternary, Requires: RequiresPage},
	{Name: NameNonStdPort, Category: CategoryLexical, Domain: binary, Requires: RequiresNothing},
	{Name: NameHTTPSDomainURL, Category: CategoryLexical, Domain: binary, Requires: RequiresNothing},
	{Name: NameRequestURL, Category: CategoryHost, Domain: ternary, Requires: RequiresPage},
	{Name: NameAnchorURL, Category: CategoryHost, Domain: ternary, Requires: RequiresPage},
	{Name: NameLinksInScriptTags, Category: CategoryHost, Domain: ternary, Requires: RequiresPage},
	{Name: NameServerFormHandler, Category: CategoryHost, Domain: ternary, Requires: RequiresPage},
	{Name: NameInfoEmail, Category: CategoryHost, Domain: ternary, Requires: RequiresPage},
	{Name: NameAbnormalURL, Category: CategoryReputation, Domain: ternary, Requires: RequiresRegistration},
	{Name: NameWebsiteForwarding, Category: CategoryHost, Domain: ternary, Requires: RequiresPage},
	{Name: NameStatusBarCust, Category: CategoryHost, Domain: ternary, Requires: RequiresPage},
	{Name: NameDisableRightClick, Category: CategoryHost, Domain: ternary, Requires: RequiresPage},
	{Name: NameUsingPopupWindow, Category: CategoryHost, Domain: ternary, Requires: RequiresPage},
	{Name: NameIframeRedirection, Category: CategoryHost, Domain: ternary, Requires: RequiresPage},
	{Name: NameAgeofDomain, Category: CategoryReputation, Domain: ternary, Requires: RequiresRegistration},
	{Name: NameDNSRecording, Category: CategoryReputation, Domain: ternary, Requires: RequiresDNS},
	{Name: NameWebsiteTraffic, Category: CategoryReputation, Domain: ternary, Requires: RequiresTrafficRank},
	{Name: NamePageRank, Category: CategoryReputation, Domain: ternary, Requires: RequiresPageRank},
	{Name: NameGoogleIndex, Category: CategoryReputation, Domain: ternary, Requires: RequiresPageRank},
	{Name: NameLinksPointingToPage, Category: CategoryReputation, Domain: ternary, Requires: RequiresPage},
	{Name: NameStatsReport, Category: CategoryReputation, Domain: ternary, Requires: RequiresDNS},
})

func mustSchema(specs []IndicatorSpec) *Schema {
	s, err := NewSchema(specs)
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultSchema returns the canonical 30-indicator schema.
func DefaultSchema() *Schema {
	return defaultSchema
}

// Len returns the number of indicators.
func (s *Schema) Len() int {
	return len(s.specs)
}

// Names returns the indicator names in vector order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.specs))
	for i, spec := range s.specs {
		names[i] = spec.Name
	}
	return names
}

// Specs returns a copy of the indicator specs in vector order.
func (s *Schema) Specs() []IndicatorSpec {
	return slices.Clone(s.specs)
}

// Spec returns the indicator at position i.
func (s *Schema) Spec(i int) IndicatorSpec {
	return s.specs[i]
}

// IndexOf returns the position of the named indicator.
func (s *Schema) IndexOf(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Validate checks that v has one entry per indicator and that every entry is
// within its indicator's domain.
func (s *Schema) Validate(v Vector) error {
	if len(v) != len(s.specs) {
		return fmt.Errorf("%w: expected %d, got %d", ErrVectorLength, len(s.specs), len(v))
	}
	for i, value := range v {
		if !s.specs[i].Allows(value) {
			return fmt.Errorf("%w: %s=%d", ErrValueOutOfDomain, s.specs[i].Name, value)
		}
	}
	return nil
}

// Fingerprint returns a stable digest of the indicator names and their order.
// Artifacts record it so a model trained on one layout is never scored with
// vectors of another.
func (s *Schema) Fingerprint() string {
	sum := sha256.Sum256([]byte(strings.Join(s.Names(), "\x00")))
	return hex.EncodeToString(sum[:])
}

// Indicator is a named value of a vector, used for reporting.
type Indicator struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Value    Value    `json:"value"`
}

// Describe pairs every entry of v with its indicator. v must have been
// validated against the schema.
func (s *Schema) Describe(v Vector) []Indicator {
	out := make([]Indicator, 0, len(v))
	for i, value := range v {
		if i >= len(s.specs) {
			break
		}
		out = append(out, Indicator{
			Name:     s.specs[i].Name,
			Category: s.specs[i].Category,
			Value:    value,
		})
	}
	return out
}
