package config

const (
	defaultConfigPath        = "~/.config/mixchapters/config.toml"
	defaultStateDir          = "~/.local/share/mixchapters"
	defaultCacheDir          = "~/.cache/mixchapters"
	defaultLogDir            = "~/.local/share/mixchapters/logs"
	defaultLedgerPath        = "~/.local/share/mixchapters/ledger.db"
	defaultAliasFile         = "~/.config/mixchapters/aliases.yaml"
	defaultCatalogBaseURL    = "https://www.1001tracklists.com"
	defaultCatalogUserAgent  = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	defaultCatalogTimeout    = 30
	defaultSessionStore      = "file"
	defaultSessionCacheName  = "session.json"
	defaultMaxRedirects      = 10
	defaultRedisKey          = "mixchapters:session"
	defaultPolicy            = "confirm"
	defaultLanguage          = "eng"
	defaultMaxUntimedRetries = 3
	defaultFileDelaySeconds  = 5
	defaultMinAutoScore      = 75
	defaultFFprobeBinary     = "ffprobe"
	defaultMkvpropedit       = "mkvpropedit"
	defaultCommandTimeout    = 120
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultNotifyTimeout     = 10
)

// Policy values for reusing tracklist metadata already stored in a file.
const (
	PolicyAuto    = "auto"
	PolicyConfirm = "confirm"
	PolicyRefresh = "refresh"
)

// Session store backends.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// DefaultScoring returns the relevance weights the ranking was tuned with.
func DefaultScoring() Scoring {
	return Scoring{
		DurationExact:    100,
		DurationClose:    80,
		DurationNear:     40,
		DurationLoose:    10,
		DurationMismatch: -20,
		Abbreviation:     35,
		Alias:            35,
		KeywordCoverage:  60,
		KeywordAllBonus:  15,
		EventMatch:       40,
		EventMismatch:    -30,
		Year:             25,
		RecencyMax:       10,
		RecencyFlat:      1,
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			CacheDir:   defaultCacheDir,
			LogDir:     defaultLogDir,
			LedgerPath: defaultLedgerPath,
			AliasFile:  defaultAliasFile,
		},
		Catalog: Catalog{
			BaseURL:        defaultCatalogBaseURL,
			UserAgent:      defaultCatalogUserAgent,
			TimeoutSeconds: defaultCatalogTimeout,
		},
		Session: Session{
			Store:        defaultSessionStore,
			MaxRedirects: defaultMaxRedirects,
			RedisKey:     defaultRedisKey,
		},
		Scoring: DefaultScoring(),
		Workflow: Workflow{
			Policy:            defaultPolicy,
			Language:          defaultLanguage,
			MaxUntimedRetries: defaultMaxUntimedRetries,
			FileDelaySeconds:  defaultFileDelaySeconds,
			MinAutoScore:      defaultMinAutoScore,
		},
		Media: Media{
			FFprobeBinary:     defaultFFprobeBinary,
			MkvpropeditBinary: defaultMkvpropedit,
			CommandTimeout:    defaultCommandTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notify: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
	}
}
