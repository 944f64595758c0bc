// Package archive provides access to the remote hourly archive.
//
// This file defines sentinel errors and an error wrapper for classifying
// archive fetch failures. These enable callers to use errors.Is/errors.As
// for typed assertions rather than string matching. Every classified kind
// maps to the download_error failure kind at the worker boundary; the
// distinction exists for logs and operator triage, not for retry policy.
package archive

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for archive failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrNotFound indicates the hourly object does not exist (404, NoSuchKey).
	ErrNotFound = errors.New("hourly slice not found")

	// ErrAuth indicates authentication failure (no credentials, expired token).
	ErrAuth = errors.New("authentication failed")

	// ErrAccessDenied indicates authorization failure (valid creds but no permission).
	ErrAccessDenied = errors.New("access denied")

	// ErrThrottled indicates archive rate limiting (429, SlowDown).
	ErrThrottled = errors.New("rate limited")

	// ErrTimeout indicates a fetch timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrNetwork indicates a network-level failure (connection refused, DNS).
	ErrNetwork = errors.New("network error")

	// ErrDecode indicates the fetched object could not be decoded as an
	// hourly slice.
	ErrDecode = errors.New("slice decode failed")
)

// FetchError wraps an underlying error with archive classification.
// It preserves the original error in the chain for inspection via errors.As.
type FetchError struct {
	// Kind is the sentinel error for classification (e.g., ErrAuth).
	Kind error
	// Key is the archive object key involved.
	Key string
	// Err is the underlying error.
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v: %v", e.Key, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *FetchError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// WrapFetchError classifies and wraps a fetch error.
// Returns nil if err is nil.
func WrapFetchError(err error, key string) error {
	if err == nil {
		return nil
	}
	return &FetchError{Kind: classifyError(err), Key: key, Err: err}
}

// classifyError determines the appropriate sentinel error for the given
// error, based on error type and message patterns from the AWS SDK and
// the net stack.
func classifyError(err error) error {
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return ErrTimeout
	}

	errStr := err.Error()
	switch {
	case containsAny(errStr, "no such file", "does not exist", "not found", "404", "NoSuchKey"):
		return ErrNotFound

	case containsAny(errStr, "timeout", "timed out", "deadline exceeded"):
		return ErrTimeout

	case containsAny(errStr, "SlowDown", "rate exceeded", "throttl", "429", "TooManyRequests"):
		return ErrThrottled

	case containsAny(errStr, "NoCredentialProviders", "credentials", "InvalidAccessKeyId",
		"SignatureDoesNotMatch", "ExpiredToken", "401", "Unauthorized"):
		return ErrAuth

	case containsAny(errStr, "AccessDenied", "Forbidden", "403"):
		return ErrAccessDenied

	case containsAny(errStr, "connection refused", "connection reset", "no route to host",
		"network unreachable", "DNS", "dial tcp", "i/o timeout"):
		return ErrNetwork

	default:
		return ErrNetwork
	}
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
