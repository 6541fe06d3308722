package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Sentinel errors for storage failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrNotFound indicates the target path does not exist (ENOENT, 404).
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied indicates a permission/access failure (EACCES, 403).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDiskFull indicates storage is out of space (ENOSPC).
	ErrDiskFull = errors.New("no space left on device")

	// ErrThrottled indicates rate limiting (429, SlowDown).
	ErrThrottled = errors.New("rate limited")

	// ErrAuth indicates an authentication failure against the backend.
	ErrAuth = errors.New("authentication failed")

	// ErrNetwork indicates a network-level failure.
	ErrNetwork = errors.New("network error")
)

// IsNotFound reports whether err indicates a missing path.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// StorageError wraps an underlying error with a classification sentinel,
// preserving the original error in the chain for errors.As inspection.
type StorageError struct {
	// Kind is the sentinel used for errors.Is classification.
	Kind error
	// Op is the failed operation ("read", "write", "list").
	Op string
	// Path is the storage path involved.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap returns the underlying error for chain traversal.
func (e *StorageError) Unwrap() error { return e.Err }

// Is reports whether the error matches the target sentinel.
func (e *StorageError) Is(target error) bool { return errors.Is(e.Kind, target) }

// WrapWriteError classifies and wraps a write failure. Returns nil if err is nil.
func WrapWriteError(err error, path string) error {
	if err == nil {
		return nil
	}
	return &StorageError{Kind: classify(err), Op: "write", Path: path, Err: err}
}

// WrapReadError classifies and wraps a read failure. Returns nil if err is nil.
func WrapReadError(err error, path string) error {
	if err == nil {
		return nil
	}
	return &StorageError{Kind: classify(err), Op: "read", Path: path, Err: err}
}

// classify determines the sentinel for an error. Typed checks first, then
// message patterns for errors the SDKs surface as opaque strings.
func classify(err error) error {
	switch {
	case os.IsNotExist(err):
		return ErrNotFound
	case os.IsPermission(err):
		return ErrPermissionDenied
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "no such file", "does not exist", "not found", "nosuchkey", "404"):
		return ErrNotFound
	case containsAny(msg, "access denied", "accessdenied", "forbidden", "403", "permission denied"):
		return ErrPermissionDenied
	case containsAny(msg, "no space left", "disk full", "quota exceeded"):
		return ErrDiskFull
	case containsAny(msg, "slowdown", "rate exceeded", "throttl", "429", "toomanyrequests"):
		return ErrThrottled
	case containsAny(msg, "expiredtoken", "invalidaccesskeyid", "signaturedoesnotmatch", "credentials", "401", "unauthorized"):
		return ErrAuth
	case containsAny(msg, "connection refused", "no route to host", "network unreachable", "dial tcp", "i/o timeout"):
		return ErrNetwork
	default:
		return errors.New("storage error")
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
