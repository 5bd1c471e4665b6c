package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scopus-harvest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ScopusConfig holds settings for the Scopus search client.
type ScopusConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is sent as the apiKey query parameter on every request.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// InstToken is an optional institutional token for subscriber access.
	InstToken string `json:"inst_token,omitempty" yaml:"inst_token,omitempty"`

	// SearchEndpoint and AuthorEndpoint override the production Scopus
	// search URLs. Empty values select the defaults.
	SearchEndpoint string `json:"search_endpoint,omitempty" yaml:"search_endpoint,omitempty"`
	AuthorEndpoint string `json:"author_endpoint,omitempty" yaml:"author_endpoint,omitempty"`

	// MaxRetries bounds retries on HTTP 429 responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBackoff is the fixed wait between 429 retries (default 5s).
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff"`

	// PageSize is the number of rows per page for paged works queries
	// (default 25). Count-only queries always request zero rows.
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxMetricsPages bounds how many pages the metrics aggregator
	// fetches per author (default 4). Citation totals and h-index are
	// therefore top-N approximations.
	MaxMetricsPages int `json:"max_metrics_pages" yaml:"max_metrics_pages"`
}

// PipelineConfig holds settings for the batch orchestrator.
type PipelineConfig struct {
	// InterRequestDelay is the minimum interval between consecutive
	// external calls (default 500ms). Pacing is the orchestrator's
	// responsibility; the client itself is stateless per call.
	InterRequestDelay time.Duration `json:"inter_request_delay" yaml:"inter_request_delay"`

	// FromYear and ToYear bound the inclusive year range, queried in
	// ascending order.
	FromYear int `json:"from_year" yaml:"from_year"`
	ToYear   int `json:"to_year" yaml:"to_year"`

	// Institution is the home-institution name used to validate
	// affiliations during name and ORCID resolution.
	Institution string `json:"institution" yaml:"institution"`

	// WithMetrics enables the h-index/citation pass for resolved authors.
	WithMetrics bool `json:"with_metrics" yaml:"with_metrics"`

	// ArtifactsDir receives the human-review artifacts (inaccessible
	// staff, ambiguous matches, ID mismatches).
	ArtifactsDir string `json:"artifacts_dir" yaml:"artifacts_dir"`

	// NameRulesPath optionally points at a YAML file overriding the
	// built-in honorific and surname-particle tables.
	NameRulesPath string `json:"name_rules_path,omitempty" yaml:"name_rules_path,omitempty"`
}

// ArchiveConfig holds settings for the SQLite archive.
type ArchiveConfig struct {
	// ArchiveDir is the directory containing harvest.db.
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
