package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	if err := c.normalizeSession(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeMedia()
	c.normalizeLogging()
	c.normalizeNotifications()
	c.normalizeAliases()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = filepath.Join(c.Paths.StateDir, "ledger.db")
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	if c.Paths.AliasFile, err = expandPath(c.Paths.AliasFile); err != nil {
		return fmt.Errorf("paths.alias_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	c.Catalog.UserAgent = strings.TrimSpace(c.Catalog.UserAgent)
	if c.Catalog.UserAgent == "" {
		c.Catalog.UserAgent = defaultCatalogUserAgent
	}
	if value, ok := os.LookupEnv("MIXCHAPTERS_EMAIL"); ok && strings.TrimSpace(value) != "" {
		c.Catalog.Email = value
	}
	if value, ok := os.LookupEnv("MIXCHAPTERS_PASSWORD"); ok && value != "" {
		c.Catalog.Password = value
	}
	c.Catalog.Email = strings.TrimSpace(c.Catalog.Email)
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = defaultCatalogTimeout
	}
}

func (c *Config) normalizeSession() error {
	c.Session.Store = strings.ToLower(strings.TrimSpace(c.Session.Store))
	if c.Session.Store == "" {
		c.Session.Store = defaultSessionStore
	}
	if strings.TrimSpace(c.Session.CachePath) == "" {
		c.Session.CachePath = filepath.Join(c.Paths.CacheDir, defaultSessionCacheName)
	}
	var err error
	if c.Session.CachePath, err = expandPath(c.Session.CachePath); err != nil {
		return fmt.Errorf("session.cache_path: %w", err)
	}
	if c.Session.MaxRedirects <= 0 {
		c.Session.MaxRedirects = defaultMaxRedirects
	}
	c.Session.RedisAddr = strings.TrimSpace(c.Session.RedisAddr)
	if value, ok := os.LookupEnv("MIXCHAPTERS_REDIS_ADDR"); ok && strings.TrimSpace(value) != "" {
		c.Session.RedisAddr = strings.TrimSpace(value)
	}
	c.Session.RedisKey = strings.TrimSpace(c.Session.RedisKey)
	if c.Session.RedisKey == "" {
		c.Session.RedisKey = defaultRedisKey
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	c.Workflow.Policy = strings.ToLower(strings.TrimSpace(c.Workflow.Policy))
	if c.Workflow.Policy == "" {
		c.Workflow.Policy = defaultPolicy
	}
	c.Workflow.Language = strings.TrimSpace(c.Workflow.Language)
	if c.Workflow.Language == "" {
		c.Workflow.Language = defaultLanguage
	}
	if c.Workflow.FileDelaySeconds < 0 {
		c.Workflow.FileDelaySeconds = 0
	}
}

func (c *Config) normalizeMedia() {
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
	c.Media.MkvpropeditBinary = strings.TrimSpace(c.Media.MkvpropeditBinary)
	if c.Media.MkvpropeditBinary == "" {
		c.Media.MkvpropeditBinary = defaultMkvpropedit
	}
	if c.Media.CommandTimeout <= 0 {
		c.Media.CommandTimeout = defaultCommandTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notify.NtfyTopic = strings.TrimSpace(c.Notify.NtfyTopic)
	if c.Notify.RequestTimeout <= 0 {
		c.Notify.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeAliases() {
	if len(c.Aliases) == 0 {
		return
	}
	normalized := make(map[string]string, len(c.Aliases))
	for key, value := range c.Aliases {
		k := strings.ToUpper(strings.TrimSpace(key))
		v := strings.TrimSpace(value)
		if k == "" || v == "" {
			continue
		}
		normalized[k] = v
	}
	c.Aliases = normalized
}
