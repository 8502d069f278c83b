// Package postgresql provides the PostgreSQL version store implementation.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/convopilot/convopilot/pkg/models"
	"github.com/convopilot/convopilot/pkg/store"
	"github.com/convopilot/convopilot/pkg/store/sqlbase"
)

// Store implements store.VersionStore on PostgreSQL. Mutations for the same
// bot serialize on a transaction-scoped advisory lock keyed by the bot id, so
// concurrent requests for one bot are strictly ordered while other bots
// proceed in parallel. The partial unique index on (bot_id) WHERE active
// backs the single-active invariant even if a lock is ever bypassed.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore connects to PostgreSQL and runs pending migrations.
func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string) (*Store, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: database, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close(_ context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// CreateDraft allocates the next version number inside a serialized
// transaction and inserts the draft row.
func (s *Store) CreateDraft(ctx context.Context, botID string, blueprint *models.Blueprint, doc *models.CompiledDocument) (*models.WorkflowVersion, error) {
	blueprintJSON, err := json.Marshal(blueprint)
	if err != nil {
		return nil, store.NewVersionError("CreateDraft", botID, 0, fmt.Errorf("failed to marshal blueprint: %w", err))
	}

	docJSON, err := doc.Canonical()
	if err != nil {
		return nil, store.NewVersionError("CreateDraft", botID, 0, fmt.Errorf("failed to marshal compiled document: %w", err))
	}

	version := &models.WorkflowVersion{
		BotID:             botID,
		Status:            models.VersionStatusDraft,
		BlueprintSnapshot: blueprint,
		CompiledDocument:  doc,
		CreatedAt:         time.Now().UTC(),
	}

	err = s.withBotLock(ctx, "CreateDraft", botID, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(version), 0) + 1 FROM workflow_versions WHERE bot_id = $1", botID)

		if err := row.Scan(&version.Version); err != nil {
			return fmt.Errorf("failed to allocate version number: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO workflow_versions (bot_id, version, status, blueprint, compiled_document, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, botID, version.Version, version.Status, blueprintJSON, docJSON, version.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert version: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return version, nil
}

// Activate promotes the target version and demotes the current active one in
// a single transaction.
func (s *Store) Activate(ctx context.Context, botID string, versionNumber int) (*models.WorkflowVersion, error) {
	var activated *models.WorkflowVersion

	err := s.withBotLock(ctx, "Activate", botID, func(tx *sql.Tx) error {
		var status models.VersionStatus

		row := tx.QueryRowContext(ctx,
			"SELECT status FROM workflow_versions WHERE bot_id = $1 AND version = $2", botID, versionNumber)

		if err := row.Scan(&status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrVersionNotFound
			}

			return fmt.Errorf("failed to load version status: %w", err)
		}

		if status == models.VersionStatusArchived {
			return store.ErrAlreadyArchived
		}

		if status != models.VersionStatusActive {
			_, err := tx.ExecContext(ctx, `
				UPDATE workflow_versions SET status = $1
				WHERE bot_id = $2 AND status = $3
			`, models.VersionStatusInactive, botID, models.VersionStatusActive)
			if err != nil {
				return fmt.Errorf("failed to demote active version: %w", err)
			}

			_, err = tx.ExecContext(ctx, `
				UPDATE workflow_versions SET status = $1, activated_at = $2
				WHERE bot_id = $3 AND version = $4
			`, models.VersionStatusActive, time.Now().UTC(), botID, versionNumber)
			if err != nil {
				return fmt.Errorf("failed to promote version: %w", err)
			}
		}

		var err error

		activated, err = s.scanVersion(tx.QueryRowContext(ctx,
			selectVersionSQL+" WHERE bot_id = $1 AND version = $2", botID, versionNumber))

		return err
	})
	if err != nil {
		return nil, err
	}

	return activated, nil
}

// Archive moves a non-active version to the terminal archived state.
func (s *Store) Archive(ctx context.Context, botID string, versionNumber int) (*models.WorkflowVersion, error) {
	var archived *models.WorkflowVersion

	err := s.withBotLock(ctx, "Archive", botID, func(tx *sql.Tx) error {
		var status models.VersionStatus

		row := tx.QueryRowContext(ctx,
			"SELECT status FROM workflow_versions WHERE bot_id = $1 AND version = $2", botID, versionNumber)

		if err := row.Scan(&status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrVersionNotFound
			}

			return fmt.Errorf("failed to load version status: %w", err)
		}

		if status == models.VersionStatusActive {
			return store.ErrCannotArchiveActive
		}

		if status != models.VersionStatusArchived {
			_, err := tx.ExecContext(ctx, `
				UPDATE workflow_versions SET status = $1, archived_at = $2
				WHERE bot_id = $3 AND version = $4
			`, models.VersionStatusArchived, time.Now().UTC(), botID, versionNumber)
			if err != nil {
				return fmt.Errorf("failed to archive version: %w", err)
			}
		}

		var err error

		archived, err = s.scanVersion(tx.QueryRowContext(ctx,
			selectVersionSQL+" WHERE bot_id = $1 AND version = $2", botID, versionNumber))

		return err
	})
	if err != nil {
		return nil, err
	}

	return archived, nil
}

// List returns version summaries newest-first by version number.
func (s *Store) List(ctx context.Context, botID string) ([]*models.VersionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bot_id, version, status,
		       jsonb_array_length(compiled_document->'nodes'),
		       created_at, activated_at, archived_at
		FROM workflow_versions
		WHERE bot_id = $1
		ORDER BY version DESC
	`, botID)
	if err != nil {
		return nil, store.NewVersionError("List", botID, 0, fmt.Errorf("failed to query versions: %w", err))
	}

	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	summaries := make([]*models.VersionSummary, 0)

	for rows.Next() {
		var summary models.VersionSummary

		err := rows.Scan(
			&summary.BotID,
			&summary.Version,
			&summary.Status,
			&summary.NodeCount,
			&summary.CreatedAt,
			&summary.ActivatedAt,
			&summary.ArchivedAt,
		)
		if err != nil {
			return nil, store.NewVersionError("List", botID, 0, fmt.Errorf("failed to scan summary: %w", err))
		}

		summaries = append(summaries, &summary)
	}

	if err := rows.Err(); err != nil {
		return nil, store.NewVersionError("List", botID, 0, fmt.Errorf("error iterating versions: %w", err))
	}

	return summaries, nil
}

// Get returns one version, or ErrVersionNotFound.
func (s *Store) Get(ctx context.Context, botID string, versionNumber int) (*models.WorkflowVersion, error) {
	version, err := s.scanVersion(s.db.QueryRowContext(ctx,
		selectVersionSQL+" WHERE bot_id = $1 AND version = $2", botID, versionNumber))
	if err != nil {
		return nil, store.NewVersionError("Get", botID, versionNumber, err)
	}

	return version, nil
}

// Active returns the bot's live version, or ErrNoActiveVersion.
func (s *Store) Active(ctx context.Context, botID string) (*models.WorkflowVersion, error) {
	version, err := s.scanVersion(s.db.QueryRowContext(ctx,
		selectVersionSQL+" WHERE bot_id = $1 AND status = $2", botID, models.VersionStatusActive))
	if err != nil {
		if store.IsVersionNotFound(err) {
			return nil, store.NewVersionError("Active", botID, 0, store.ErrNoActiveVersion)
		}

		return nil, store.NewVersionError("Active", botID, 0, err)
	}

	return version, nil
}

const selectVersionSQL = `
	SELECT bot_id, version, status, blueprint, compiled_document, created_at, activated_at, archived_at
	FROM workflow_versions
`

// withBotLock runs fn inside a transaction holding the bot's advisory lock.
// Unique-violation and serialization failures map to ErrConcurrentModification.
func (s *Store) withBotLock(ctx context.Context, op, botID string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.NewVersionError(op, botID, 0, fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", botID)
	if err != nil {
		return store.NewVersionError(op, botID, 0, fmt.Errorf("failed to acquire bot lock: %w", err))
	}

	if err := fn(tx); err != nil {
		return store.NewVersionError(op, botID, 0, translateConflict(err))
	}

	if err := tx.Commit(); err != nil {
		return store.NewVersionError(op, botID, 0, translateConflict(err))
	}

	return nil
}

func translateConflict(err error) error {
	var pqErr *pq.Error

	if errors.As(err, &pqErr) {
		// unique_violation or serialization_failure means a concurrent
		// mutation slipped past the lock ordering; the caller should retry.
		if pqErr.Code == "23505" || pqErr.Code == "40001" {
			return fmt.Errorf("%w: %s", store.ErrConcurrentModification, pqErr.Message)
		}
	}

	return err
}

func (s *Store) scanVersion(row *sql.Row) (*models.WorkflowVersion, error) {
	var (
		version                 models.WorkflowVersion
		blueprintJSON, docJSON  []byte
		activatedAt, archivedAt sql.NullTime
	)

	err := row.Scan(
		&version.BotID,
		&version.Version,
		&version.Status,
		&blueprintJSON,
		&docJSON,
		&version.CreatedAt,
		&activatedAt,
		&archivedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrVersionNotFound
		}

		return nil, fmt.Errorf("failed to scan version: %w", err)
	}

	if activatedAt.Valid {
		t := activatedAt.Time.UTC()
		version.ActivatedAt = &t
	}

	if archivedAt.Valid {
		t := archivedAt.Time.UTC()
		version.ArchivedAt = &t
	}

	if err := json.Unmarshal(blueprintJSON, &version.BlueprintSnapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blueprint: %w", err)
	}

	if err := json.Unmarshal(docJSON, &version.CompiledDocument); err != nil {
		return nil, fmt.Errorf("failed to unmarshal compiled document: %w", err)
	}

	return &version, nil
}
