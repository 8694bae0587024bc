package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "phishscan"

	// ModelFileName is the file name of the model artifact inside the data
	// directory. The path carries no version: every training run replaces
	// the previous artifact.
	ModelFileName = "model.json"

	// DefaultContentTimeout bounds the page fetch shared by the host and
	// content indicators. Phishing kits are often hosted on slow free
	// hosting, so this is more generous than a typical API call.
	DefaultContentTimeout = 10 * time.Second

	// DefaultReputationTimeout bounds each WHOIS, DNS and rank lookup.
	// A lookup that does not answer in time only neutralizes its own
	// indicators.
	DefaultReputationTimeout = 8 * time.Second

	// DefaultBatchSize of 10 concurrent checks balances throughput with
	// the load placed on WHOIS servers and the rank API.
	DefaultBatchSize = 10

	// DefaultUserAgent is sent with page fetches. Phishing kits commonly
	// cloak their content from obvious scanner agents, so a browser agent
	// is used by default.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	// DefaultMaxBodySize limits the response body read from a page.
	// 2MB covers nearly every login page while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 2 * 1024 * 1024 // 2MB

	// DefaultMaxRedirects is the number of redirects followed before the
	// page fetch gives up.
	DefaultMaxRedirects = 10

	// DefaultWhoisInterval spaces WHOIS queries. Registries rate limit
	// aggressively and answer bursts with empty records.
	DefaultWhoisInterval = 1 * time.Second

	// DefaultCacheSize is the number of entries kept by each lookup cache.
	DefaultCacheSize = 4096

	// DefaultCacheTTL is how long a cached lookup answer stays valid.
	DefaultCacheTTL = 1 * time.Hour

	// DefaultTestRatio is the share of the dataset held out for evaluation.
	DefaultTestRatio = 0.2

	// DefaultSeed drives the train/test split and row subsampling.
	DefaultSeed = 42

	// OpenPageRankKeyEnv is the environment variable holding the Open
	// PageRank API key. Secrets are only read from the environment or a
	// .env file, never from the YAML configuration file.
	OpenPageRankKeyEnv = "PHISHSCAN_OPENPAGERANK_KEY"
)

// Config holds all configuration options for phishscan.
// This struct is populated from the configuration file and CLI flags and
// passed through the application via dependency injection rather than
// global state.
//
// Design decision: We use a single flat struct for the check options. Only
// the training parameters are grouped, because they are used by a single
// command and map one to one onto the classifier parameters.
type Config struct {
	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogFile routes logs to a rotating JSON log file instead of stderr.
	LogFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .phishscan in the current directory,
	// the XDG config directory and then the user's home directory.
	ConfigFilePath string

	// JSONReport enables JSON report output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive
	// with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// Targets is the list of URLs to check.
	Targets []string

	// ListFile is a file with one URL per line, checked in addition to
	// Targets.
	ListFile string

	// Offline disables every network lookup. Only the lexical indicators
	// are computed; all others stay Neutral.
	Offline bool

	// BatchSize is the number of concurrent checks when processing
	// multiple targets.
	BatchSize int

	// ModelPath is the model artifact location.
	// Defaults to $XDG_DATA_HOME/phishscan/model.json.
	ModelPath string

	// Watch reloads the model whenever the artifact is rewritten.
	Watch bool

	// DBDir is the directory path for storing the SQLite history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to save check results to the database.
	SaveToDB bool

	// ContentTimeout bounds the page fetch.
	ContentTimeout time.Duration

	// ReputationTimeout bounds each reputation lookup.
	ReputationTimeout time.Duration

	// UserAgent is the User-Agent header sent with page fetches.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (2MB).
	MaxBodySize int64

	// MaxRedirects is the number of redirects followed by the page fetch.
	MaxRedirects int

	// SOCKS5Proxy routes page fetches through a SOCKS5 proxy in
	// "host:port" format. Empty connects directly.
	SOCKS5Proxy string

	// Nameserver overrides the system resolver in "host:port" format.
	Nameserver string

	// LookupWhois enables the registration lookup.
	LookupWhois bool

	// LookupDNS enables the DNS lookup.
	LookupDNS bool

	// LookupTrafficRank enables the traffic rank list.
	LookupTrafficRank bool

	// LookupPageRank enables the Open PageRank API. It also requires
	// OpenPageRankKey.
	LookupPageRank bool

	// LookupBlocklist enables the blocklist.
	LookupBlocklist bool

	// RankListPath is a Tranco style "rank,domain" CSV file.
	RankListPath string

	// BlocklistPath is a file with one host or IP per line, merged with
	// the built-in blocklist.
	BlocklistPath string

	// ShortenerHosts are added to the built-in URL shortener list.
	ShortenerHosts []string

	// WhoisInterval spaces WHOIS queries.
	WhoisInterval time.Duration

	// CacheSize is the number of entries kept by each lookup cache.
	CacheSize int

	// CacheTTL is how long a cached lookup answer stays valid.
	CacheTTL time.Duration

	// OpenPageRankKey is the Open PageRank API key. Loaded from
	// PHISHSCAN_OPENPAGERANK_KEY.
	OpenPageRankKey string

	// Training holds the parameters of the train command.
	Training Training
}

// Training holds the parameters of a training run.
type Training struct {
	// DatasetPath is the labeled CSV file.
	DatasetPath string

	// Rounds is the number of boosting rounds.
	Rounds int

	// LearningRate shrinks every tree.
	LearningRate float64

	// MaxDepth bounds each tree.
	MaxDepth int

	// MinSamplesLeaf is the minimum leaf size.
	MinSamplesLeaf int

	// Subsample is the row fraction drawn for each tree.
	Subsample float64

	// Seed drives the split and subsampling.
	Seed uint64

	// TestRatio is the held-out share.
	TestRatio float64
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, lookup
// toggles). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BatchSize:         DefaultBatchSize,
		ModelPath:         DefaultModelPath(),
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
		ContentTimeout:    DefaultContentTimeout,
		ReputationTimeout: DefaultReputationTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		MaxRedirects:      DefaultMaxRedirects,
		LookupWhois:       true,
		LookupDNS:         true,
		LookupTrafficRank: true,
		LookupPageRank:    true,
		LookupBlocklist:   true,
		WhoisInterval:     DefaultWhoisInterval,
		CacheSize:         DefaultCacheSize,
		CacheTTL:          DefaultCacheTTL,
		Training: Training{
			Rounds:         100,
			LearningRate:   0.1,
			MaxDepth:       5,
			MinSamplesLeaf: 1,
			Subsample:      1.0,
			Seed:           DefaultSeed,
			TestRatio:      DefaultTestRatio,
		},
	}
}

// XDGDataDir returns the XDG data directory for phishscan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/phishscan
// On macOS: ~/Library/Application Support/phishscan
// On Windows: %LOCALAPPDATA%\phishscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for phishscan.
// On Linux: ~/.config/phishscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGStateDir returns the XDG state directory for phishscan, where log
// files are kept.
// On Linux: ~/.local/state/phishscan
func XDGStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultModelPath returns the default model artifact location.
func DefaultModelPath() string {
	return filepath.Join(XDGDataDir(), ModelFileName)
}

// DefaultLogFile returns the log file used when --log-file is given
// without a path.
func DefaultLogFile() string {
	return filepath.Join(XDGStateDir(), AppName+".log")
}

// Validate checks if the check configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any check begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one URL to check
	if len(c.Targets) == 0 && c.ListFile == "" {
		return ErrNoTarget
	}

	// Zero timeouts would neutralize every networked indicator
	if c.ContentTimeout <= 0 || c.ReputationTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.MaxRedirects < 0 {
		return ErrInvalidMaxRedirects
	}

	if c.ModelPath == "" {
		return ErrNoModelPath
	}

	return nil
}

// ValidateTraining checks the options of the train command.
// The boosting parameters themselves are validated by the classifier.
func (c *Config) ValidateTraining() error {
	if c.Training.DatasetPath == "" {
		return ErrNoDataset
	}
	if c.Training.TestRatio <= 0 || c.Training.TestRatio >= 1 {
		return ErrInvalidTestRatio
	}
	return nil
}
