package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDispatch()
	c.normalizeLogging()
	c.normalizeNotifications()
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	// Definition files are optional; an empty value skips ingestion for that kind.
	if c.Paths.AlertDefinitions, err = ExpandPath(strings.TrimSpace(c.Paths.AlertDefinitions)); err != nil {
		return fmt.Errorf("paths.alert_definitions: %w", err)
	}
	if c.Paths.ReportDefinitions, err = ExpandPath(strings.TrimSpace(c.Paths.ReportDefinitions)); err != nil {
		return fmt.Errorf("paths.report_definitions: %w", err)
	}
	return nil
}

func (c *Config) normalizeDispatch() {
	c.Dispatch.Pool = strings.ToLower(strings.TrimSpace(c.Dispatch.Pool))
	if c.Dispatch.Pool == "" {
		c.Dispatch.Pool = defaultDispatchPool
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("BENCHMGR_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}
