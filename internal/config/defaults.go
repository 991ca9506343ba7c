package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel  = "info"
	DefaultJSONLog   = false
	DefaultBaseURL   = "https://stanford.evaluationkit.com"
	DefaultUserAgent = "evalcrawl/1.0 (https://github.com/law-makers/evalcrawl)"

	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRateLimitRPS   = 2.0
	DefaultRateLimitBurst = 4

	DefaultPageDelay  = 500 * time.Millisecond
	DefaultBatchDelay = 1 * time.Second
	DefaultTermDelay  = 2 * time.Second

	DefaultHeartbeatPath     = "/Home/KeepAlive"
	DefaultHeartbeatInterval = 4 * time.Minute

	DefaultReportRetries = 3
	DefaultReportBackoff = 1 * time.Second
	DefaultPageRetries   = 2
	DefaultPageBackoff   = 2 * time.Second
	DefaultMaxBackoff    = 30 * time.Second
	DefaultMaxPages      = 500

	DefaultStore           = "file"
	DefaultEvaluationsPath = "data/evaluations.json"
	DefaultProgressPath    = "data/progress.json"
	DefaultDatabasePath    = "data/evalcrawl.db"

	DefaultConcurrency    = 5
	DefaultMaxConcurrency = 32
	DefaultWorkers        = 2
	DefaultMaxWorkers     = 16

	DefaultCacheTTL  = 30 * time.Minute
	DefaultCacheSize = 1024
)
