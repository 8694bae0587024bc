package fetch

import "errors"

// Fetch errors. All of them resolve the content indicators to Neutral when
// the client is used through the feature extractor.
var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrUnexpectedStatus is returned when the server answers with a 4xx or
	// 5xx status. Error pages do not describe the site being checked.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is not
	// in host:port form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")
)
