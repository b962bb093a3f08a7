package config

import (
	"fmt"
	"strconv"
	"time"
)

// GetString retrieves a string value from the configuration or the provided default.
func (c *Config) GetString(key string, defaultVal ...string) string {
	val, ok := c.rawValue(key)
	if !ok {
		return optionalDefault("", defaultVal...)
	}
	return fmt.Sprint(val)
}

// GetInt retrieves an int value from the configuration or the provided default.
func (c *Config) GetInt(key string, defaultVal ...int) int {
	val, ok := c.rawValue(key)
	if !ok {
		return optionalDefault(0, defaultVal...)
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return optionalDefault(0, defaultVal...)
}

// GetBool retrieves a bool value from the configuration or the provided default.
func (c *Config) GetBool(key string, defaultVal ...bool) bool {
	val, ok := c.rawValue(key)
	if !ok {
		return optionalDefault(false, defaultVal...)
	}

	switch v := val.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return optionalDefault(false, defaultVal...)
}

// GetDuration retrieves a duration written as a Go duration string ("1.5s") or as
// integer nanoseconds, falling back to the provided default.
func (c *Config) GetDuration(key string, defaultVal ...time.Duration) time.Duration {
	val, ok := c.rawValue(key)
	if !ok {
		return optionalDefault(time.Duration(0), defaultVal...)
	}

	switch v := val.(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v)
	case int64:
		return time.Duration(v)
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return optionalDefault(time.Duration(0), defaultVal...)
}

// Exists reports whether key is set by any source, defaults included.
func (c *Config) Exists(key string) bool {
	_, ok := c.rawValue(key)
	return ok
}

// Settings returns every loaded key in flattened dotted form.
func (c *Config) Settings() map[string]any {
	if c == nil || c.k == nil {
		return map[string]any{}
	}
	return c.k.All()
}

// Database returns the database section, empty on a nil config.
func (c *Config) Database() DatabaseConfig {
	if c == nil {
		return DatabaseConfig{}
	}
	return c.DB
}

// Logging returns the logging section, which the file may spell "log" or "logging".
func (c *Config) Logging() LogConfig {
	if c == nil {
		return LogConfig{}
	}
	return c.Log
}

func (c *Config) rawValue(key string) (any, bool) {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return nil, false
	}
	return c.k.Get(key), true
}

func optionalDefault[T any](zero T, defaults ...T) T {
	if len(defaults) > 0 {
		return defaults[0]
	}
	return zero
}
