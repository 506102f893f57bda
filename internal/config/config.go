package config

// Config represents the full application configuration.
type Config struct {
	GitHub        GitHubConfig        `yaml:"github"`
	Provider      ProviderConfig      `yaml:"provider"`
	Review        ReviewConfig        `yaml:"review"`
	HTTP          HTTPConfig          `yaml:"http"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// GitHubConfig identifies the reviewed change request and the API
// endpoint to talk to.
type GitHubConfig struct {
	Owner      string `yaml:"owner"`
	Repo       string `yaml:"repo"`
	PullNumber int    `yaml:"pullNumber"`
	Token      string `yaml:"token"`

	// BaseURL overrides the API endpoint for GitHub Enterprise.
	BaseURL string `yaml:"baseURL"`
}

// ProviderConfig configures the text-generation provider.
type ProviderConfig struct {
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	MaxTokens int    `yaml:"maxTokens"`
	BaseURL   string `yaml:"baseURL"`
}

// ReviewConfig configures segmentation and dispatch behavior.
type ReviewConfig struct {
	// Mode selects segmentation: "line", "block", or "file".
	Mode string `yaml:"mode"`

	// WholePR posts a single summary review instead of inline comments.
	WholePR bool `yaml:"wholePR"`

	// IgnoreList is a newline-separated list of file names excluded
	// from review. Matching is exact and case-sensitive.
	IgnoreList string `yaml:"ignoreList"`

	// MaxPatchChars skips any unit or patch longer than this many
	// characters. Zero means unbounded.
	MaxPatchChars int `yaml:"maxPatchChars"`

	// NoIssuesMarker is the exact model reply treated as "no issues".
	NoIssuesMarker string `yaml:"noIssuesMarker"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// StoreConfig configures the optional run-history audit log.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`         // debug, info, error
	Format        string `yaml:"format"`        // json, human; empty picks by TTY
	RedactAPIKeys bool   `yaml:"redactAPIKeys"` // Redact API keys in logs
}
