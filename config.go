// FILE: config.go
package auditfile

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/lixenwraith/config"
)

// Config holds all audit spool configuration values
type Config struct {
	// Spool location; empty directory or pattern disables the subsystem
	Directory       string `toml:"directory"`
	FilenamePattern string `toml:"filename_pattern"` // time placeholders, minute resolution

	// Rotation
	RotationIntervalMin int64 `toml:"rotation_interval_min"` // minutes between boundaries

	// Interception toggles
	LogConnections    bool `toml:"log_connections"`
	LogDisconnections bool `toml:"log_disconnections"`

	// Host-side knobs the subsystem reads
	FileMode  int64  `toml:"file_mode"` // group/other bits of created files; owner-write is always forced
	Verbosity string `toml:"verbosity"` // "terse", "default", or "verbose"

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Directory:       "",
	FilenamePattern: "audit-%Y%m%d_%H%M.log",

	// One day
	RotationIntervalMin: 1440,

	LogConnections:    false,
	LogDisconnections: false,

	FileMode:  0o600,
	Verbosity: VerbosityDefault,

	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Use lixenwraith/config as a loader
	loader := config.New()

	// Register the struct to enable proper unmarshaling
	if err := loader.RegisterStruct("audit.", *cfg); err != nil {
		return nil, fmt.Errorf("failed to register config struct: %w", err)
	}

	// Load from file (handles file not found gracefully)
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	// Extract values into our Config struct
	if err := extractConfig(loader, "audit.", cfg); err != nil {
		return nil, fmt.Errorf("failed to extract config values: %w", err)
	}

	// Validate the loaded configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmt.Errorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig extracts values from lixenwraith/config into our Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		key := prefix + tomlTag

		val, found := loader.Get(key)
		if !found {
			continue // Use default value
		}

		if err := setFieldValue(fieldValue, val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	// A zero interval would divide by zero in the rotation clock
	if c.RotationIntervalMin <= 0 {
		return fmtErrorf("rotation_interval_min must be positive: %d", c.RotationIntervalMin)
	}

	if c.Verbosity != VerbosityTerse && c.Verbosity != VerbosityDefault && c.Verbosity != VerbosityVerbose {
		return fmtErrorf("invalid verbosity: '%s' (use terse, default, or verbose)", c.Verbosity)
	}

	if c.FileMode < 0 || c.FileMode > 0o777 {
		return fmtErrorf("file_mode out of range: %o", c.FileMode)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// Enabled reports whether the subsystem intercepts anything at all.
// Missing directory or pattern is a mode, not an error: every event
// passes through untouched.
func (c *Config) Enabled() bool {
	return c.Directory != "" && c.FilenamePattern != ""
}

// Interval returns the rotation interval as a duration
func (c *Config) Interval() time.Duration {
	return time.Duration(c.RotationIntervalMin) * time.Minute
}

// requiresRotation reports whether switching from old to c invalidates
// filenames already derived by workers
func (c *Config) requiresRotation(old *Config) bool {
	return c.Directory != old.Directory ||
		c.FilenamePattern != old.FilenamePattern ||
		c.RotationIntervalMin != old.RotationIntervalMin
}
