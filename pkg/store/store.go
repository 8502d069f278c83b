// Package store provides the storage abstraction for workflow version
// history.
package store

import (
	"context"

	"github.com/convopilot/convopilot/pkg/models"
)

// VersionStore owns the durable version history per bot. Implementations
// must serialize mutating operations for the same bot against each other:
// version numbers are allocated without gaps or duplicates, and at most one
// version per bot is active at any time. Operations for different bots are
// independent. Every mutation either fully succeeds or fails with no partial
// version observable.
type VersionStore interface {
	// CreateDraft allocates the next version number for the bot atomically
	// and persists an immutable draft snapshot.
	CreateDraft(ctx context.Context, botID string, blueprint *models.Blueprint, doc *models.CompiledDocument) (*models.WorkflowVersion, error)

	// Activate promotes the target version to active, demoting the currently
	// active version (if any) to inactive, in one atomic step. Fails with
	// ErrVersionNotFound or ErrAlreadyArchived.
	Activate(ctx context.Context, botID string, version int) (*models.WorkflowVersion, error)

	// Archive moves a non-active version to the terminal archived state.
	// Fails with ErrCannotArchiveActive for the active version.
	Archive(ctx context.Context, botID string, version int) (*models.WorkflowVersion, error)

	// List returns version summaries for a bot, newest-first by version
	// number.
	List(ctx context.Context, botID string) ([]*models.VersionSummary, error)

	// Get returns one version, or ErrVersionNotFound.
	Get(ctx context.Context, botID string, version int) (*models.WorkflowVersion, error)

	// Active returns the bot's live version, or ErrNoActiveVersion.
	Active(ctx context.Context, botID string) (*models.WorkflowVersion, error)

	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
