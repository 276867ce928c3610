package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPlayerClosed is returned by commands sent to a destroyed player.
	ErrPlayerClosed = errors.New("player closed")
	// ErrProviderClosed is returned once the session provider shut down.
	ErrProviderClosed = errors.New("session provider closed")
	// ErrInvalidSkipCount is returned when Skip is asked to skip fewer than one track.
	ErrInvalidSkipCount = errors.New("skip count must be at least 1")
)

// FormatError reports a malformed or unencodable track payload.
type FormatError struct {
	Op     string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ConfigurationError reports an invalid argument or setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SessionUnavailableError is returned when no node session could be obtained.
type SessionUnavailableError struct {
	GuildID string
	Err     error
}

func (e *SessionUnavailableError) Error() string {
	return fmt.Sprintf("session unavailable for guild %s: %v", e.GuildID, e.Err)
}

func (e *SessionUnavailableError) Unwrap() error { return e.Err }

// RemoteRejectionError is a non-success response from the node.
type RemoteRejectionError struct {
	Status  int
	Reason  string
	Message string
	Path    string
}

func (e *RemoteRejectionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("node rejected request (%d %s): %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("node rejected request (%d %s)", e.Status, e.Reason)
}
