package config

import (
	"fmt"
	"os"

	"github.com/hay-kot/criterio"
)

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("history.max_depth", c.History.MaxDepth, nonNegative),
		criterio.Run("database.max_open_conns", c.Database.MaxOpenConns, nonNegative),
		criterio.Run("database.max_idle_conns", c.Database.MaxIdleConns, nonNegative),
		criterio.Run("database.busy_timeout_ms", c.Database.BusyTimeout, nonNegative),
		criterio.Run("theme", c.Theme, knownTheme),
		c.validateSync(),
	)
}

// ValidateDeep performs comprehensive validation including filesystem
// checks. The configPath argument specifies the config file location to
// validate (empty string skips the config file check).
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func (c *Config) validateSync() error {
	var errs criterio.FieldErrorsBuilder
	if c.Sync.Timeout < 0 {
		errs = errs.Append("sync.timeout", fmt.Errorf("must not be negative"))
	}
	if c.Sync.FailureTTL < 0 {
		errs = errs.Append("sync.failure_ttl", fmt.Errorf("must not be negative"))
	}
	return errs.ToError()
}

func nonNegative(n int) error {
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func knownTheme(name string) error {
	if name == "" {
		return nil
	}
	if !IsKnownTheme(name) {
		return fmt.Errorf("unknown theme %q", name)
	}
	return nil
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
