package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"mixchapters/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notify.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notify.NtfyTopic)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", c.Notify.NtfyTopic)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	parsed, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("catalog.base_url must be an absolute URL, got %q", c.Catalog.BaseURL)
	}
	email := strings.TrimSpace(c.Catalog.Email)
	if (email == "") != (c.Catalog.Password == "") {
		return errors.New("catalog.email and catalog.password must be set together (or set MIXCHAPTERS_EMAIL and MIXCHAPTERS_PASSWORD)")
	}
	return nil
}

func (c *Config) validateSession() error {
	switch c.Session.Store {
	case StoreFile:
		if strings.TrimSpace(c.Session.CachePath) == "" {
			return errors.New("session.cache_path must be set when session.store is \"file\"")
		}
	case StoreRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("session.redis_addr must be set when session.store is \"redis\"")
		}
	default:
		return fmt.Errorf("session.store must be %q or %q, got %q", StoreFile, StoreRedis, c.Session.Store)
	}
	if c.Session.MaxRedirects <= 0 {
		return errors.New("session.max_redirects must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	switch c.Workflow.Policy {
	case PolicyAuto, PolicyConfirm, PolicyRefresh:
	default:
		return fmt.Errorf("workflow.policy must be one of auto, confirm, refresh; got %q", c.Workflow.Policy)
	}
	if !language.Valid(c.Workflow.Language) {
		return fmt.Errorf("workflow.language %q is not a recognized language code", c.Workflow.Language)
	}
	if c.Workflow.MaxUntimedRetries < 0 {
		return errors.New("workflow.max_untimed_retries must be >= 0")
	}
	if c.Workflow.FileDelaySeconds < 0 {
		return errors.New("workflow.file_delay_seconds must be >= 0")
	}
	if err := ensurePositiveMap(map[string]int{
		"catalog.timeout_seconds": c.Catalog.TimeoutSeconds,
		"media.command_timeout":   c.Media.CommandTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScoring() error {
	s := c.Scoring
	if s.DurationExact < s.DurationClose || s.DurationClose < s.DurationNear ||
		s.DurationNear < s.DurationLoose || s.DurationLoose < s.DurationMismatch {
		return errors.New("scoring duration weights must not increase as the duration gap widens")
	}
	if s.KeywordCoverage < 0 || s.RecencyMax < 0 {
		return errors.New("scoring.keyword_coverage and scoring.recency_max must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
