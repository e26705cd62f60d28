package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDispatch() error {
	switch c.Dispatch.Pool {
	case PoolPerDefinition:
	case PoolFixed, PoolBounded:
		if c.Dispatch.Workers <= 0 {
			return fmt.Errorf("dispatch.workers must be positive when dispatch.pool is %q", c.Dispatch.Pool)
		}
	default:
		return fmt.Errorf("dispatch.pool: unsupported value %q (expected %s, %s or %s)",
			c.Dispatch.Pool, PoolPerDefinition, PoolFixed, PoolBounded)
	}
	if c.Dispatch.StageTimeout < 0 {
		return errors.New("dispatch.stage_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Bind == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind: %w", err)
	}
	return nil
}
