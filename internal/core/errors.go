package core

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports missing credentials or collection identifiers.
// It is raised before any network attempt.
type ConfigurationError struct {
	Op      string
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: missing configuration %s", e.Op, strings.Join(e.Missing, ", "))
}

// ParseError reports a remote record that could not be normalized. The
// record is dropped from its batch.
type ParseError struct {
	Collection Collection
	Index      int
	Reason     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s record %d: %s", e.Collection, e.Index, e.Reason)
}

// NetworkError reports a transport or remote failure on the read path.
type NetworkError struct {
	Op         string
	Collection Collection
	Err        error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError reports an unmet mutation precondition.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RemoteRejection reports a mutation the remote store did not apply.
// Detail carries the remote response message.
type RemoteRejection struct {
	Op     string
	ID     string
	Detail string
	Err    error
}

func (e *RemoteRejection) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s rejected: %s", e.Op, e.ID, e.Detail)
	}
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Detail)
}

func (e *RemoteRejection) Unwrap() error { return e.Err }

// IsRecoverable reports whether err leaves the last good snapshot usable,
// i.e. it happened on the read path.
func IsRecoverable(err error) bool {
	var netErr *NetworkError
	var cfgErr *ConfigurationError
	return errors.As(err, &netErr) || errors.As(err, &cfgErr)
}
