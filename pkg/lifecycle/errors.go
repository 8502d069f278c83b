// Package lifecycle provides standardized error types for version lifecycle
// operations.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/convopilot/convopilot/pkg/store"
)

// Business logic errors. Store sentinels are re-exported so callers depend
// on one package for the whole taxonomy.
var (
	// ErrBotNotFound indicates the bot id is not registered (400/404).
	ErrBotNotFound = errors.New("bot not found")

	// ErrCompilationFailed indicates the compiler rejected a blueprint that
	// passed validation. This is an engine defect, not a client error.
	ErrCompilationFailed = errors.New("blueprint compilation failed")

	// ErrNotPreviouslyActive indicates a rollback targeted a version that
	// never served traffic.
	ErrNotPreviouslyActive = errors.New("version was never activated")

	ErrVersionNotFound        = store.ErrVersionNotFound
	ErrNoActiveVersion        = store.ErrNoActiveVersion
	ErrAlreadyArchived        = store.ErrAlreadyArchived
	ErrCannotArchiveActive    = store.ErrCannotArchiveActive
	ErrConcurrentModification = store.ErrConcurrentModification
)

// LifecycleError wraps lifecycle errors with operation context.
type LifecycleError struct {
	Op    string
	BotID string
	Err   error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s failed for bot %s: %v", e.Op, e.BotID, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}

func (e *LifecycleError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newLifecycleError(op, botID string, err error) *LifecycleError {
	return &LifecycleError{Op: op, BotID: botID, Err: err}
}

// IsBotNotFound checks if an error indicates an unregistered bot.
func IsBotNotFound(err error) bool {
	return errors.Is(err, ErrBotNotFound)
}

// IsNotPreviouslyActive checks if an error indicates an illegal rollback
// target.
func IsNotPreviouslyActive(err error) bool {
	return errors.Is(err, ErrNotPreviouslyActive)
}

// IsConflictError checks if an error is a state conflict that should return
// HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyArchived) ||
		errors.Is(err, ErrCannotArchiveActive) ||
		errors.Is(err, ErrNotPreviouslyActive) ||
		errors.Is(err, ErrConcurrentModification)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBotNotFound) ||
		errors.Is(err, ErrVersionNotFound) ||
		errors.Is(err, ErrNoActiveVersion)
}
