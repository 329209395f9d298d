package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Concurrency limits.
const (
	// DefaultConcurrencyLimit limits concurrent bulk operations.
	DefaultConcurrencyLimit = 3
)

// Query cache tuning.
const (
	// DefaultCacheSize is the maximum number of entries kept by the memory cache.
	DefaultCacheSize = 1000

	// DefaultGCTime is how long an unobserved cache entry survives before eviction.
	DefaultGCTime = 5 * time.Minute

	// DefaultGCInterval is how often the store looks for unobserved entries.
	DefaultGCInterval = 1 * time.Minute

	// StatsStaleTime is the freshness window for aggregate statistics.
	StatsStaleTime = 60 * time.Second

	// CatalogStaleTime is the freshness window for formations, simulateurs and permissions.
	CatalogStaleTime = 5 * time.Minute

	// CacheEntryLifetime bounds how long a backend keeps a stored value.
	CacheEntryLifetime = 24 * time.Hour

	// DefaultNATSBucket is the JetStream key-value bucket used by the NATS cache.
	DefaultNATSBucket = "crm-query-cache"
)

// Session defaults.
const (
	// DefaultSessionCookie is the name of the httponly cookie carrying the session.
	DefaultSessionCookie = "access_token"

	// DefaultLoginPath is where unauthenticated navigations are sent.
	DefaultLoginPath = "/login"

	// DefaultHomePath is where authenticated visits to the login page are sent.
	DefaultHomePath = "/dashboard"
)

// Display constants.
const (
	// DateTimeFormat is used when rendering timestamps in tables.
	DateTimeFormat = "2006-01-02 15:04:05"

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// DefaultJSONIndent is the indentation used by JSON and YAML renderers.
	DefaultJSONIndent = 2
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
