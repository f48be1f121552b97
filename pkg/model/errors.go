package model

import (
	"errors"
	"fmt"
)

// ValidationError reports bad input. It is never retried and surfaces
// immediately to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NetworkError wraps a connectivity or server-side failure. Transient.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network: %s: %v", e.Message, e.Err)
	}
	return "network: " + e.Message
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Temporary() bool { return true }

// RateLimitedError reports an HTTP 429 from a provider. Transient.
type RateLimitedError struct {
	Provider string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

func (e *RateLimitedError) Temporary() bool { return true }

// BlockedError reports an HTTP 403 or captcha interstitial from a provider.
// Transient: blocks on the free endpoint usually clear within minutes.
type BlockedError struct {
	Provider string
	Detail   string
}

func (e *BlockedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: blocked", e.Provider)
	}
	return fmt.Sprintf("%s: blocked: %s", e.Provider, e.Detail)
}

func (e *BlockedError) Temporary() bool { return true }

// InvalidResponseError reports a payload that could not be parsed into a
// translation. Transient: the free endpoint intermittently serves garbage.
type InvalidResponseError struct {
	Provider string
	Detail   string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("%s: invalid response: %s", e.Provider, e.Detail)
}

func (e *InvalidResponseError) Temporary() bool { return true }

// ConfigError reports a misconfiguration such as a missing API key for a
// metered provider. Permanent; retrying cannot help.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "config: " + e.Reason }

// temporary is the classification hook, following the net.Error convention.
type temporary interface {
	Temporary() bool
}

// IsTransient reports whether an error is worth retrying. Typed errors decide
// via their Temporary method; untyped errors (raw transport faults, timeouts
// bubbling out of net/http) default to transient, while validation and config
// errors are always permanent.
func IsTransient(err error) bool {
	var v *ValidationError
	if errors.As(err, &v) {
		return false
	}
	var c *ConfigError
	if errors.As(err, &c) {
		return false
	}
	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return true
}
