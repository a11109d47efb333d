package config

// ValidationError reports a config field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ValidateRequired rejects empty values.
func ValidateRequired(field, value string) error {
	if value == "" {
		return invalid(field, "is required")
	}
	return nil
}

// ValidatePort rejects ports outside the TCP range.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return invalid(field, "must be between 1 and 65535")
	}
	return nil
}

// ValidateLogLevel rejects levels the logger cannot parse.
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	}
	return invalid("level", "must be one of: debug, info, warn, error, fatal")
}

// ValidateThreshold rejects scores outside the 0..1 scale.
func ValidateThreshold(field string, v float64) error {
	if v < 0 || v > 1 {
		return invalid(field, "must be between 0.0 and 1.0")
	}
	return nil
}
