package config

import "time"

// File represents the structure of the .phishscan configuration file.
// Every field is optional; unset fields keep the value already in Config.
type File struct {
	// Timeouts bounds the network lookups.
	Timeouts TimeoutSection `yaml:"timeouts,omitempty"`

	// Lookups enables or disables individual lookup sources.
	Lookups LookupSection `yaml:"lookups,omitempty"`

	// Paths overrides file locations.
	Paths PathSection `yaml:"paths,omitempty"`

	// Fetch configures the page fetcher.
	Fetch FetchSection `yaml:"fetch,omitempty"`

	// Shorteners are extra URL shortener hosts.
	Shorteners []string `yaml:"shorteners,omitempty"`

	// BatchSize overrides the number of concurrent checks.
	BatchSize int `yaml:"batchSize,omitempty"`

	// Training overrides the default training parameters.
	Training TrainingSection `yaml:"training,omitempty"`
}

// TimeoutSection holds lookup timeouts as Go duration strings ("10s").
type TimeoutSection struct {
	Content    time.Duration `yaml:"content,omitempty"`
	Reputation time.Duration `yaml:"reputation,omitempty"`
}

// LookupSection toggles lookup sources. Pointers distinguish "false" from
// "not set".
type LookupSection struct {
	Whois       *bool `yaml:"whois,omitempty"`
	DNS         *bool `yaml:"dns,omitempty"`
	TrafficRank *bool `yaml:"trafficRank,omitempty"`
	PageRank    *bool `yaml:"pageRank,omitempty"`
	Blocklist   *bool `yaml:"blocklist,omitempty"`

	// WhoisInterval spaces WHOIS queries.
	WhoisInterval time.Duration `yaml:"whoisInterval,omitempty"`

	// Nameserver overrides the system resolver ("host:port").
	Nameserver string `yaml:"nameserver,omitempty"`

	// CacheSize and CacheTTL configure the lookup caches.
	CacheSize int           `yaml:"cacheSize,omitempty"`
	CacheTTL  time.Duration `yaml:"cacheTTL,omitempty"`
}

// PathSection overrides file locations.
type PathSection struct {
	Model     string `yaml:"model,omitempty"`
	Database  string `yaml:"database,omitempty"`
	RankList  string `yaml:"rankList,omitempty"`
	Blocklist string `yaml:"blocklist,omitempty"`
}

// FetchSection configures the page fetcher.
type FetchSection struct {
	UserAgent    string `yaml:"userAgent,omitempty"`
	MaxBodySize  int64  `yaml:"maxBodySize,omitempty"`
	MaxRedirects int    `yaml:"maxRedirects,omitempty"`
	SOCKS5Proxy  string `yaml:"socks5Proxy,omitempty"`
}

// TrainingSection overrides the default training parameters.
type TrainingSection struct {
	Rounds         int     `yaml:"rounds,omitempty"`
	LearningRate   float64 `yaml:"learningRate,omitempty"`
	MaxDepth       int     `yaml:"maxDepth,omitempty"`
	MinSamplesLeaf int     `yaml:"minSamplesLeaf,omitempty"`
	Subsample      float64 `yaml:"subsample,omitempty"`
	Seed           uint64  `yaml:"seed,omitempty"`
	TestRatio      float64 `yaml:"testRatio,omitempty"`
}

// ApplyTo merges the file into cfg. Only values set in the file override
// cfg, so the precedence is defaults, then file, then CLI flags applied by
// the caller afterwards.
func (f *File) ApplyTo(cfg *Config) {
	if f == nil || cfg == nil {
		return
	}

	if f.Timeouts.Content > 0 {
		cfg.ContentTimeout = f.Timeouts.Content
	}
	if f.Timeouts.Reputation > 0 {
		cfg.ReputationTimeout = f.Timeouts.Reputation
	}

	setBool(&cfg.LookupWhois, f.Lookups.Whois)
	setBool(&cfg.LookupDNS, f.Lookups.DNS)
	setBool(&cfg.LookupTrafficRank, f.Lookups.TrafficRank)
	setBool(&cfg.LookupPageRank, f.Lookups.PageRank)
	setBool(&cfg.LookupBlocklist, f.Lookups.Blocklist)
	if f.Lookups.WhoisInterval > 0 {
		cfg.WhoisInterval = f.Lookups.WhoisInterval
	}
	if f.Lookups.Nameserver != "" {
		cfg.Nameserver = f.Lookups.Nameserver
	}
	if f.Lookups.CacheSize > 0 {
		cfg.CacheSize = f.Lookups.CacheSize
	}
	if f.Lookups.CacheTTL > 0 {
		cfg.CacheTTL = f.Lookups.CacheTTL
	}

	if f.Paths.Model != "" {
		cfg.ModelPath = f.Paths.Model
	}
	if f.Paths.Database != "" {
		cfg.DBDir = f.Paths.Database
	}
	if f.Paths.RankList != "" {
		cfg.RankListPath = f.Paths.RankList
	}
	if f.Paths.Blocklist != "" {
		cfg.BlocklistPath = f.Paths.Blocklist
	}

	if f.Fetch.UserAgent != "" {
		cfg.UserAgent = f.Fetch.UserAgent
	}
	if f.Fetch.MaxBodySize > 0 {
		cfg.MaxBodySize = f.Fetch.MaxBodySize
	}
	if f.Fetch.MaxRedirects > 0 {
		cfg.MaxRedirects = f.Fetch.MaxRedirects
	}
	if f.Fetch.SOCKS5Proxy != "" {
		cfg.SOCKS5Proxy = f.Fetch.SOCKS5Proxy
	}

	if len(f.Shorteners) > 0 {
		cfg.ShortenerHosts = append(cfg.ShortenerHosts, f.Shorteners...)
	}
	if f.BatchSize > 0 {
		cfg.BatchSize = f.BatchSize
	}

	t := f.Training
	if t.Rounds > 0 {
		cfg.Training.Rounds = t.Rounds
	}
	if t.LearningRate > 0 {
		cfg.Training.LearningRate = t.LearningRate
	}
	if t.MaxDepth > 0 {
		cfg.Training.MaxDepth = t.MaxDepth
	}
	if t.MinSamplesLeaf > 0 {
		cfg.Training.MinSamplesLeaf = t.MinSamplesLeaf
	}
	if t.Subsample > 0 {
		cfg.Training.Subsample = t.Subsample
	}
	if t.Seed > 0 {
		cfg.Training.Seed = t.Seed
	}
	if t.TestRatio > 0 {
		cfg.Training.TestRatio = t.TestRatio
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
