// SPDX-License-Identifier: MIT
package validate

import (
	"errors"
	"fmt"
	"strings"
)

// LogLevel represents a python logging level name as used in job_logging.
type LogLevel string

const (
	LogLevelNotSet   LogLevel = "NOTSET"
	LogLevelDebug    LogLevel = "DEBUG"
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARNING"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
)

// ErrInvalidLogLevel is returned by ParseLogLevel for unknown names.
var ErrInvalidLogLevel = errors.New("invalid log level (must be NOTSET, DEBUG, INFO, WARNING, ERROR or CRITICAL)")

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelNotSet, LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelCritical:
		return true
	default:
		return false
	}
}

// ParseLogLevel parses a string into a LogLevel. Matching is case-insensitive.
func ParseLogLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !level.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
	return level, nil
}
