package feature

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	page  *Page
	err   error
	block bool
}

func (s stubFetcher) FetchPage(ctx context.Context, _ string) (*Page, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.page, s.err
}

type stubRegistration struct {
	reg *Registration
	err error
}

func (s stubRegistration) LookupRegistration(context.Context, string) (*Registration, error) {
	return s.reg, s.err
}

type stubDNS struct {
	addrs []string
	err   error
}

func (s stubDNS) LookupHost(context.Context, string) ([]string, error) {
	return s.addrs, s.err
}

type stubRank struct {
	rank int
	err  error
}

func (s stubRank) TrafficRank(context.Context, string) (int, error) {
	return s.rank, s.err
}

type stubPageRank struct {
	rank float64
	err  error
}

func (s stubPageRank) PageRank(context.Context, string) (float64, error) {
	return s.rank, s.err
}

type stubBlocklist map[string]bool

func (s stubBlocklist) Listed(v string) bool {
	return s[v]
}

var fixedNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func valueOf(t *testing.T, v Vector, name string) Value {
	t.Helper()
	i, ok := DefaultSchema().IndexOf(name)
	require.True(t, ok, "unknown indicator %s", name)
	return v[i]
}

func TestExtractLexical(t *testing.T) {
	t.Parallel()

	e := NewExtractor()

	tests := []struct {
		name string
		url  string
		want map[string]Value
	}{
		{
			name: "legitimate https URL",
			url:  "https://accounts.google.com/signin",
			want: map[string]Value{
				NameUsingIP:        Legitimate,
				NameLongURL:        Legitimate,
				NameShortURL:       Legitimate,
				NameSymbolAt:       Legitimate,
				NameRedirecting:    Legitimate,
				NamePrefixSuffix:   Legitimate,
				NameSubDomains:     Neutral,
				NameHTTPS:          Legitimate,
				NameNonStdPort:     Legitimate,
				NameHTTPSDomainURL: Legitimate,
			},
		},
		{
			name: "IP decoy in userinfo",
			url:  "http://192.168.1.5@serviceupdate-login.tk/verify",
			want: map[string]Value{
				NameUsingIP:      Suspicious,
				NameSymbolAt:     Suspicious,
				NamePrefixSuffix: Suspicious,
				NameHTTPS:        Suspicious,
				NameSubDomains:   Legitimate,
			},
		},
		{
			name: "hexadecimal IP host",
			url:  "http://0x7f.0x0.0x0.0x1/login",
			want: map[string]Value{
				NameUsingIP:    Suspicious,
				NameSubDomains: Suspicious,
			},
		},
		{
			name: "double slash redirection",
			url:  "http://example.com//http://evil.example.net",
			want: map[string]Value{
				NameRedirecting: Suspicious,
			},
		},
		{
			name: "shortener without scheme",
			url:  "bit.ly/3xYz",
			want: map[string]Value{
				NameShortURL: Suspicious,
				NameHTTPS:    Suspicious,
			},
		},
		{
			name: "non standard port",
			url:  "http://example.com:8080/",
			want: map[string]Value{
				NameNonStdPort: Suspicious,
			},
		},
		{
			name: "deep subdomains and https token",
			url:  "https://secure.login.paypal.com.https-verify.io/",
			want: map[string]Value{
				NameSubDomains:     Suspicious,
				NameHTTPSDomainURL: Suspicious,
				NamePrefixSuffix:   Suspicious,
			},
		},
		{
			name: "www is not a subdomain",
			url:  "https://www.example.com/",
			want: map[string]Value{
				NameSubDomains: Legitimate,
			},
		},
		{
			name: "medium length",
			url:  "https://example.com/" + strings.Repeat("a", 40),
			want: map[string]Value{
				NameLongURL: Neutral,
			},
		},
		{
			name: "very long",
			url:  "https://example.com/" + strings.Repeat("a", 500),
			want: map[string]Value{
				NameLongURL: Suspicious,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := e.ExtractLexical(tt.url)
			require.NoError(t, err)
			require.Len(t, v, DefaultSchema().Len())
			require.NoError(t, DefaultSchema().Validate(v))

			for name, want := range tt.want {
				assert.Equal(t, want, valueOf(t, v, name), name)
			}
			assert.Equal(t, Neutral, valueOf(t, v, NameFavicon))
			assert.Equal(t, Neutral, valueOf(t, v, NameAgeofDomain))
		})
	}
}

func TestExtractLexicalIsDeterministic(t *testing.T) {
	t.Parallel()

	e := NewExtractor()
	first, err := e.ExtractLexical("http://paypal-secure.example.tk/login?acct=1")
	require.NoError(t, err)
	for range 10 {
		again, err := e.ExtractLexical("http://paypal-secure.example.tk/login?acct=1")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExtractErrors(t *testing.T) {
	t.Parallel()

	e := NewExtractor()

	_, err := e.Extract(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyURL)

	_, err = e.Extract(context.Background(), " \t\n")
	assert.ErrorIs(t, err, ErrEmptyURL)

	_, err = e.ExtractLexical("")
	assert.ErrorIs(t, err, ErrEmptyURL)

	_, err = e.ExtractAny(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotString)

	_, err = e.ExtractAny(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotString)

	v, err := e.ExtractAny(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Len(t, v, 30)
}

func TestExtractWithoutCapabilities(t *testing.T) {
	t.Parallel()

	e := NewExtractor()
	odd := []string{
		"example.com",
		"http://10.0.0.1",
		"//example.com",
		"https://example.com/" + strings.Repeat("x", 10000),
		"ftp://files.example.com/pub",
		"http://[2001:db8::1]/",
	}
	for _, u := range odd {
		v, err := e.Extract(context.Background(), u)
		require.NoError(t, err, u)
		require.NoError(t, DefaultSchema().Validate(v), u)
		assert.Equal(t, Neutral, valueOf(t, v, NameRequestURL), u)
		assert.Equal(t, Neutral, valueOf(t, v, NameWebsiteTraffic), u)
	}
}

func legitimatePage() *Page {
	return &Page{
		URL:             "https://accounts.google.com/signin",
		Favicons:        []string{"/favicon.ico"},
		Media:           []string{"/logo.png", "https://accounts.google.com/img/a.png", "https://ssl.gstatic.com/b.png"},
		Anchors:         []string{"/help", "/privacy", "https://www.google.com/terms", "#main"},
		LinksAndScripts: []string{"/static/app.js", "/static/app.css"},
		FormActions:     []string{"/signin/v2/challenge"},
		HTML:            "<html><body><form action=\"/signin/v2/challenge\"></form></body></html>",
	}
}

func phishingPage() *Page {
	return &Page{
		URL:             "http://serviceupdate-login.tk/verify",
		Redirects:       5,
		Favicons:        []string{"https://www.paypal.com/favicon.ico"},
		Media:           []string{"https://www.paypal.com/logo.png"},
		Anchors:         []string{"#", "javascript:void(0)", "https://www.paypal.com/help"},
		LinksAndScripts: []string{"https://www.paypal.com/app.css"},
		FormActions:     []string{"about:blank"},
		Frames:          1,
		HTML: `<a href="mailto:support@example.tk">mail</a>
<a onmouseover="window.status='https://paypal.com'">x</a>
<script>document.onmousedown=function(event){if(event.button==2){return false}};window.open("x")</script>`,
	}
}

func TestExtractContentIndicators(t *testing.T) {
	t.Parallel()

	t.Run("legitimate page", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(WithPageFetcher(stubFetcher{page: legitimatePage()}))
		v, err := e.Extract(context.Background(), "https://accounts.google.com/signin")
		require.NoError(t, err)

		assert.Equal(t, Legitimate, valueOf(t, v, NameFavicon))
		assert.Equal(t, Neutral, valueOf(t, v, NameRequestURL))
		assert.Equal(t, Legitimate, valueOf(t, v, NameAnchorURL))
		assert.Equal(t, Legitimate, valueOf(t, v, NameLinksInScriptTags))
		assert.Equal(t, Legitimate, valueOf(t, v, NameServerFormHandler))
		assert.Equal(t, Legitimate, valueOf(t, v, NameInfoEmail))
		assert.Equal(t, Legitimate, valueOf(t, v, NameWebsiteForwarding))
		assert.Equal(t, Legitimate, valueOf(t, v, NameStatusBarCust))
		assert.Equal(t, Legitimate, valueOf(t, v, NameDisableRightClick))
		assert.Equal(t, Legitimate, valueOf(t, v, NameUsingPopupWindow))
		assert.Equal(t, Legitimate, valueOf(t, v, NameIframeRedirection))
		assert.Equal(t, Legitimate, valueOf(t, v, NameLinksPointingToPage))
	})

	t.Run("phishing page", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(WithPageFetcher(stubFetcher{page: phishingPage()}))
		v, err := e.Extract(context.Background(), "http://serviceupdate-login.tk/verify")
		require.NoError(t, err)

		assert.Equal(t, Suspicious, valueOf(t, v, NameFavicon))
		assert.Equal(t, Suspicious, valueOf(t, v, NameRequestURL))
		assert.Equal(t, Suspicious, valueOf(t, v, NameAnchorURL))
		assert.Equal(t, Suspicious, valueOf(t, v, NameLinksInScriptTags))
		assert.Equal(t, Suspicious, valueOf(t, v, NameServerFormHandler))
		assert.Equal(t, Suspicious, valueOf(t, v, NameInfoEmail))
		assert.Equal(t, Suspicious, valueOf(t, v, NameWebsiteForwarding))
		assert.Equal(t, Suspicious, valueOf(t, v, NameStatusBarCust))
		assert.Equal(t, Suspicious, valueOf(t, v, NameDisableRightClick))
		assert.Equal(t, Suspicious, valueOf(t, v, NameUsingPopupWindow))
		assert.Equal(t, Suspicious, valueOf(t, v, NameIframeRedirection))
		assert.Equal(t, Legitimate, valueOf(t, v, NameLinksPointingToPage))
	})

	t.Run("external form handler is neutral", func(t *testing.T) {
		t.Parallel()

		page := legitimatePage()
		page.FormActions = []string{"https://collector.example.net/post"}
		e := NewExtractor(WithPageFetcher(stubFetcher{page: page}))
		v, err := e.Extract(context.Background(), "https://accounts.google.com/signin")
		require.NoError(t, err)
		assert.Equal(t, Neutral, valueOf(t, v, NameServerFormHandler))
	})

	t.Run("page without anchors", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(WithPageFetcher(stubFetcher{page: &Page{URL: "https://example.com/"}}))
		v, err := e.Extract(context.Background(), "https://example.com/")
		require.NoError(t, err)
		assert.Equal(t, Suspicious, valueOf(t, v, NameAnchorURL))
		assert.Equal(t, Suspicious, valueOf(t, v, NameLinksPointingToPage))
		assert.Equal(t, Legitimate, valueOf(t, v, NameRequestURL))
		assert.Equal(t, Legitimate, valueOf(t, v, NameFavicon))
	})
}

func TestExtractReputationIndicators(t *testing.T) {
	t.Parallel()

	t.Run("established domain", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(
			WithClock(func() time.Time { return fixedNow }),
			WithRegistrationLookup(stubRegistration{reg: &Registration{
				DomainName: "GOOGLE.COM",
				CreatedAt:  time.Date(1997, 9, 15, 0, 0, 0, 0, time.UTC),
				ExpiresAt:  time.Date(2028, 9, 14, 0, 0, 0, 0, time.UTC),
			}}),
			WithDNSLookup(stubDNS{addrs: []string{"142.250.72.14"}}),
			WithTrafficRank(stubRank{rank: 1}),
			WithPageRank(stubPageRank{rank: 1.0}),
			WithBlocklist(stubBlocklist{}),
		)
		v, err := e.Extract(context.Background(), "https://accounts.google.com/signin")
		require.NoError(t, err)

		assert.Equal(t, Legitimate, valueOf(t, v, NameDomainRegLen))
		assert.Equal(t, Legitimate, valueOf(t, v, NameAbnormalURL))
		assert.Equal(t, Legitimate, valueOf(t, v, NameAgeofDomain))
		assert.Equal(t, Legitimate, valueOf(t, v, NameDNSRecording))
		assert.Equal(t, Legitimate, valueOf(t, v, NameWebsiteTraffic))
		assert.Equal(t, Legitimate, valueOf(t, v, NamePageRank))
		assert.Equal(t, Legitimate, valueOf(t, v, NameGoogleIndex))
		assert.Equal(t, Legitimate, valueOf(t, v, NameStatsReport))
	})

	t.Run("fresh blocklisted domain", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(
			WithClock(func() time.Time { return fixedNow }),
			WithRegistrationLookup(stubRegistration{reg: &Registration{
				DomainName: "registrar-parking.net",
				CreatedAt:  time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
				ExpiresAt:  time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC),
			}}),
			WithDNSLookup(stubDNS{addrs: []string{"203.0.113.9"}}),
			WithTrafficRank(stubRank{err: ErrNotFound}),
			WithPageRank(stubPageRank{rank: 0.05}),
			WithBlocklist(stubBlocklist{"203.0.113.9": true}),
		)
		v, err := e.Extract(context.Background(), "http://serviceupdate-login.tk/verify")
		require.NoError(t, err)

		assert.Equal(t, Suspicious, valueOf(t, v, NameDomainRegLen))
		assert.Equal(t, Suspicious, valueOf(t, v, NameAbnormalURL))
		assert.Equal(t, Suspicious, valueOf(t, v, NameAgeofDomain))
		assert.Equal(t, Legitimate, valueOf(t, v, NameDNSRecording))
		assert.Equal(t, Suspicious, valueOf(t, v, NameWebsiteTraffic))
		assert.Equal(t, Suspicious, valueOf(t, v, NamePageRank))
		assert.Equal(t, Legitimate, valueOf(t, v, NameGoogleIndex))
		assert.Equal(t, Suspicious, valueOf(t, v, NameStatsReport))
	})

	t.Run("authoritative negatives", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(
			WithRegistrationLookup(stubRegistration{err: ErrNotFound}),
			WithDNSLookup(stubDNS{err: ErrNotFound}),
			WithPageRank(stubPageRank{err: ErrNotFound}),
		)
		v, err := e.Extract(context.Background(), "http://no-such-domain.example/")
		require.NoError(t, err)

		assert.Equal(t, Suspicious, valueOf(t, v, NameAgeofDomain))
		assert.Equal(t, Suspicious, valueOf(t, v, NameDNSRecording))
		assert.Equal(t, Suspicious, valueOf(t, v, NameGoogleIndex))
		assert.Equal(t, Neutral, valueOf(t, v, NameStatsReport))
	})

	t.Run("transport failures degrade to neutral", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("connection reset")
		e := NewExtractor(
			WithPageFetcher(stubFetcher{err: boom}),
			WithRegistrationLookup(stubRegistration{err: boom}),
			WithDNSLookup(stubDNS{err: boom}),
			WithTrafficRank(stubRank{err: boom}),
			WithPageRank(stubPageRank{err: boom}),
			WithBlocklist(stubBlocklist{}),
		)
		v, err := e.Extract(context.Background(), "https://example.com/")
		require.NoError(t, err)

		lexical, err := e.ExtractLexical("https://example.com/")
		require.NoError(t, err)
		assert.Equal(t, lexical, v)
	})
}

func TestExtractTimeoutNeutralizesOnlyContent(t *testing.T) {
	t.Parallel()

	e := NewExtractor(
		WithPageFetcher(stubFetcher{block: true}),
		WithContentTimeout(20*time.Millisecond),
		WithDNSLookup(stubDNS{addrs: []string{"93.184.216.34"}}),
	)

	start := time.Now()
	v, err := e.Extract(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.Equal(t, Neutral, valueOf(t, v, NameFavicon))
	assert.Equal(t, Neutral, valueOf(t, v, NameIframeRedirection))
	assert.Equal(t, Legitimate, valueOf(t, v, NameDNSRecording))
	assert.Equal(t, Legitimate, valueOf(t, v, NameHTTPS))
}

func TestExtractCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExtractor(WithPageFetcher(stubFetcher{block: true}))
	v, err := e.Extract(ctx, "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, Neutral, valueOf(t, v, NameAnchorURL))
}

func TestWithShortenerHosts(t *testing.T) {
	t.Parallel()

	e := NewExtractor(WithShortenerHosts(" Go.Example.com ", ""))
	v, err := e.ExtractLexical("https://go.example.com/abc")
	require.NoError(t, err)
	assert.Equal(t, Suspicious, valueOf(t, v, NameShortURL))
}
