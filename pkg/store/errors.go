// Package store provides standardized error types for version store
// operations.
package store

import (
	"errors"
	"fmt"
)

// Standard store error types that all implementations should use.
var (
	// ErrVersionNotFound indicates the version does not exist for the bot.
	ErrVersionNotFound = errors.New("workflow version not found")

	// ErrNoActiveVersion indicates the bot has no active version.
	ErrNoActiveVersion = errors.New("no active workflow version")

	// ErrAlreadyArchived indicates an activation targeted an archived
	// version. Archived versions never become active again.
	ErrAlreadyArchived = errors.New("workflow version already archived")

	// ErrCannotArchiveActive indicates an archival targeted the active
	// version. A different version must be activated first.
	ErrCannotArchiveActive = errors.New("cannot archive the active workflow version")

	// ErrConcurrentModification indicates two mutating calls for the same
	// bot raced; the caller should retry.
	ErrConcurrentModification = errors.New("concurrent modification of workflow versions")
)

// VersionError wraps version store errors with operation context.
type VersionError struct {
	Op      string // Operation being performed (e.g., "CreateDraft", "Activate")
	BotID   string
	Version int // Zero when the operation is not version-addressed
	Err     error
}

func (e *VersionError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("%s failed for bot %s version %d: %v", e.Op, e.BotID, e.Version, e.Err)
	}

	return fmt.Sprintf("%s failed for bot %s: %v", e.Op, e.BotID, e.Err)
}

func (e *VersionError) Unwrap() error {
	return e.Err
}

func (e *VersionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewVersionError creates a version error with context.
func NewVersionError(op, botID string, version int, err error) *VersionError {
	return &VersionError{
		Op:      op,
		BotID:   botID,
		Version: version,
		Err:     err,
	}
}

// IsVersionNotFound checks if an error indicates a missing version.
func IsVersionNotFound(err error) bool {
	return errors.Is(err, ErrVersionNotFound)
}

// IsNoActiveVersion checks if an error indicates the bot has no live version.
func IsNoActiveVersion(err error) bool {
	return errors.Is(err, ErrNoActiveVersion)
}

// IsAlreadyArchived checks if an error indicates an illegal activation of an
// archived version.
func IsAlreadyArchived(err error) bool {
	return errors.Is(err, ErrAlreadyArchived)
}

// IsCannotArchiveActive checks if an error indicates an illegal archival of
// the active version.
func IsCannotArchiveActive(err error) bool {
	return errors.Is(err, ErrCannotArchiveActive)
}

// IsConcurrentModification checks if an error indicates a lost race that the
// caller should retry.
func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
