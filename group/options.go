package group

// ErrorMode defines how the Group handles errors from goroutines
type ErrorMode int

const (
	// FailFast cancels the group on first error and returns it
	FailFast ErrorMode = iota
	// CollectAll collects all errors and returns them as an aggregate
	CollectAll
)

func (m ErrorMode) String() string {
	switch m {
	case FailFast:
		return "FAIL_FAST"
	case CollectAll:
		return "COLLECT_ALL"
	default:
		return "UNKNOWN"
	}
}

// Config holds configuration for a Group
type Config struct {
	errorMode ErrorMode
}

// Option configures a Group
type Option func(*Config)

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		errorMode: FailFast,
	}
}

// WithErrorMode sets how errors are handled
func WithErrorMode(mode ErrorMode) Option {
	return func(c *Config) {
		c.errorMode = mode
	}
}
