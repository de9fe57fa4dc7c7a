// FILE: override.go
package auditfile

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyOverride applies string key-value overrides to the interceptor's
// current configuration. Each override should be in the format "key=value".
// The configuration is cloned before modification to ensure thread safety.
//
// Example:
//
//	it := auditfile.New()
//	err := it.ApplyOverride(
//	    "directory=/var/log/audit",
//	    "rotation_interval_min=60",
//	    "log_connections=true",
//	)
func (it *Interceptor) ApplyOverride(overrides ...string) error {
	cfg := it.GetConfig()

	var errs []error

	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := applyConfigField(cfg, key, value); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return combineConfigErrors(errs)
	}

	return it.ApplyConfig(cfg)
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString("auditfile: multiple configuration errors:")
	for i, err := range errs {
		errMsg := err.Error()
		// Remove "auditfile: " prefix from individual errors to avoid duplication
		errMsg = strings.TrimPrefix(errMsg, "auditfile: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config.
// This is the core field mapping logic for string overrides.
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	case "directory":
		cfg.Directory = value
	case "filename_pattern":
		cfg.FilenamePattern = value

	case "rotation_interval_min":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for rotation_interval_min '%s': %w", value, err)
		}
		cfg.RotationIntervalMin = intVal

	case "log_connections":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for log_connections '%s': %w", value, err)
		}
		cfg.LogConnections = boolVal
	case "log_disconnections":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for log_disconnections '%s': %w", value, err)
		}
		cfg.LogDisconnections = boolVal

	case "file_mode":
		// Accept octal with or without leading zero
		intVal, err := strconv.ParseInt(value, 8, 64)
		if err != nil {
			return fmtErrorf("invalid octal value for file_mode '%s': %w", value, err)
		}
		cfg.FileMode = intVal

	case "verbosity":
		cfg.Verbosity = value

	case "internal_errors_to_stderr":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for internal_errors_to_stderr '%s': %w", value, err)
		}
		cfg.InternalErrorsToStderr = boolVal

	default:
		return fmtErrorf("unknown configuration key '%s'", key)
	}

	return nil
}
