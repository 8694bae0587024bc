package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/phishscan/internal/feature"
)

// DefaultOpenPageRankEndpoint is the Open PageRank API endpoint.
const DefaultOpenPageRankEndpoint = "https://openpagerank.com/api/v1.0/getPageRank"

// OpenPageRank queries the Open PageRank API. Ranks are returned on the
// API's 0-10 scale divided by ten.
type OpenPageRank struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// OpenPageRankOption configures an OpenPageRank client.
type OpenPageRankOption func(*OpenPageRank)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) OpenPageRankOption {
	return func(o *OpenPageRank) {
		o.endpoint = endpoint
	}
}

// WithPageRankHTTPClient overrides the HTTP client.
func WithPageRankHTTPClient(c *http.Client) OpenPageRankOption {
	return func(o *OpenPageRank) {
		o.client = c
	}
}

// NewOpenPageRank creates a client authenticated with apiKey.
func NewOpenPageRank(apiKey string, opts ...OpenPageRankOption) (*OpenPageRank, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	o := &OpenPageRank{
		apiKey:   apiKey,
		endpoint: DefaultOpenPageRankEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

type openPageRankResponse struct {
	StatusCode int `json:"status_code"`
	Response   []struct {
		StatusCode      int     `json:"status_code"`
		Error           string  `json:"error"`
		PageRankDecimal float64 `json:"page_rank_decimal"`
		Domain          string  `json:"domain"`
	} `json:"response"`
}

// PageRank implements feature.PageRanker.
func (o *OpenPageRank) PageRank(ctx context.Context, domain string) (float64, error) {
	q := url.Values{}
	q.Add("domains[]", domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("API-OPR", o.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	}

	var body openPageRankResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	if len(body.Response) == 0 {
		return 0, fmt.Errorf("%w: empty response", ErrUnexpectedResponse)
	}

	entry := body.Response[0]
	switch entry.StatusCode {
	case http.StatusOK:
		return entry.PageRankDecimal / 10, nil
	case http.StatusNotFound:
		return 0, fmt.Errorf("%w: %s", feature.ErrNotFound, domain)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedResponse, entry.Error)
	}
}
