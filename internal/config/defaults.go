package config

const (
	defaultDataDir           = "~/.local/share/fixmybarangay"
	defaultLogDir            = "~/.local/share/fixmybarangay/logs"
	defaultAPIBaseURL        = "http://127.0.0.1:8080"
	defaultSubmitTimeout     = 15
	defaultProbeTimeout      = 5
	defaultRequestTimeout    = 10
	defaultQueueMaxItems     = 100
	defaultQueueMaxRetries   = 3
	defaultQueueRecentErrors = 5
	defaultSyncInterval      = 300
	defaultCycleTimeout      = 30
	defaultSettleDelay       = 2
	defaultProbeInterval     = 30
	defaultMaxCycleBackoff   = 600
	defaultCacheRefreshLimit = 100
	defaultServerBind        = ":8080"
	defaultDuplicateRadius   = 120
	defaultDuplicateWindow   = 24
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			BaseURL:        defaultAPIBaseURL,
			SubmitTimeout:  defaultSubmitTimeout,
			ProbeTimeout:   defaultProbeTimeout,
			RequestTimeout: defaultRequestTimeout,
		},
		Queue: Queue{
			MaxItems:     defaultQueueMaxItems,
			MaxRetries:   defaultQueueMaxRetries,
			RecentErrors: defaultQueueRecentErrors,
		},
		Sync: Sync{
			Interval:          defaultSyncInterval,
			CycleTimeout:      defaultCycleTimeout,
			SettleDelay:       defaultSettleDelay,
			ProbeInterval:     defaultProbeInterval,
			MaxCycleBackoff:   defaultMaxCycleBackoff,
			CacheRefreshLimit: defaultCacheRefreshLimit,
		},
		Server: Server{
			Bind:            defaultServerBind,
			DuplicateRadius: defaultDuplicateRadius,
			DuplicateWindow: defaultDuplicateWindow,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
