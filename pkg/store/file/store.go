// Package file provides a file-based version store for local development and
// tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/convopilot/convopilot/pkg/models"
	"github.com/convopilot/convopilot/pkg/store"
)

// Store implements store.VersionStore on the file system. Versions live at
// <root>/bots/<botID>/<version>.json. A per-bot mutex serializes mutations
// for the same bot; different bots proceed independently.
type Store struct {
	root string

	mu    sync.Mutex // guards locks
	locks map[string]*sync.Mutex
}

// NewStore creates a file-backed version store rooted at the given directory.
func NewStore(root string) *Store {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Store{
		root:  cleanRoot,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockBot acquires the bot's serialization lock and returns the unlock func.
func (s *Store) lockBot(botID string) func() {
	s.mu.Lock()

	lock, ok := s.locks[botID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[botID] = lock
	}

	s.mu.Unlock()
	lock.Lock()

	return lock.Unlock
}

func (s *Store) botDir(botID string) string {
	return filepath.Join(s.root, "bots", botID)
}

func (s *Store) versionPath(botID string, version int) string {
	return filepath.Join(s.botDir(botID), strconv.Itoa(version)+".json")
}

// CreateDraft allocates the next version number under the bot lock and
// persists the draft.
func (s *Store) CreateDraft(ctx context.Context, botID string, blueprint *models.Blueprint, doc *models.CompiledDocument) (*models.WorkflowVersion, error) {
	unlock := s.lockBot(botID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, store.NewVersionError("CreateDraft", botID, 0, err)
	}

	numbers, err := s.versionNumbers(botID)
	if err != nil {
		return nil, store.NewVersionError("CreateDraft", botID, 0, err)
	}

	next := 1
	if len(numbers) > 0 {
		next = numbers[len(numbers)-1] + 1
	}

	version := &models.WorkflowVersion{
		BotID:             botID,
		Version:           next,
		Status:            models.VersionStatusDraft,
		BlueprintSnapshot: blueprint,
		CompiledDocument:  doc,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.writeVersion(version); err != nil {
		return nil, store.NewVersionError("CreateDraft", botID, next, err)
	}

	return version, nil
}

// Activate promotes the target version and demotes the current active one
// under the bot lock.
func (s *Store) Activate(ctx context.Context, botID string, versionNumber int) (*models.WorkflowVersion, error) {
	unlock := s.lockBot(botID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, store.NewVersionError("Activate", botID, versionNumber, err)
	}

	target, err := s.readVersion(botID, versionNumber)
	if err != nil {
		return nil, store.NewVersionError("Activate", botID, versionNumber, err)
	}

	if target.Status == models.VersionStatusArchived {
		return nil, store.NewVersionError("Activate", botID, versionNumber, store.ErrAlreadyArchived)
	}

	if target.Status == models.VersionStatusActive {
		return target, nil
	}

	current, err := s.findActive(botID)
	if err != nil {
		return nil, store.NewVersionError("Activate", botID, versionNumber, err)
	}

	// Demote first so a crash between writes can never leave two actives.
	if current != nil {
		current.Status = models.VersionStatusInactive
		if err := s.writeVersion(current); err != nil {
			return nil, store.NewVersionError("Activate", botID, versionNumber, err)
		}
	}

	now := time.Now().UTC()
	target.Status = models.VersionStatusActive
	target.ActivatedAt = &now

	if err := s.writeVersion(target); err != nil {
		// Restore the demoted version so a failed promote does not leave
		// the bot without an active version.
		if current != nil {
			current.Status = models.VersionStatusActive
			_ = s.writeVersion(current)
		}

		return nil, store.NewVersionError("Activate", botID, versionNumber, err)
	}

	return target, nil
}

// Archive moves a non-active version to the terminal archived state.
func (s *Store) Archive(ctx context.Context, botID string, versionNumber int) (*models.WorkflowVersion, error) {
	unlock := s.lockBot(botID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, store.NewVersionError("Archive", botID, versionNumber, err)
	}

	target, err := s.readVersion(botID, versionNumber)
	if err != nil {
		return nil, store.NewVersionError("Archive", botID, versionNumber, err)
	}

	if target.Status == models.VersionStatusActive {
		return nil, store.NewVersionError("Archive", botID, versionNumber, store.ErrCannotArchiveActive)
	}

	if target.Status == models.VersionStatusArchived {
		return target, nil
	}

	now := time.Now().UTC()
	target.Status = models.VersionStatusArchived
	target.ArchivedAt = &now

	if err := s.writeVersion(target); err != nil {
		return nil, store.NewVersionError("Archive", botID, versionNumber, err)
	}

	return target, nil
}

// List returns version summaries newest-first by version number.
func (s *Store) List(ctx context.Context, botID string) ([]*models.VersionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewVersionError("List", botID, 0, err)
	}

	numbers, err := s.versionNumbers(botID)
	if err != nil {
		return nil, store.NewVersionError("List", botID, 0, err)
	}

	summaries := make([]*models.VersionSummary, 0, len(numbers))

	for i := len(numbers) - 1; i >= 0; i-- {
		version, err := s.readVersion(botID, numbers[i])
		if err != nil {
			return nil, store.NewVersionError("List", botID, numbers[i], err)
		}

		summaries = append(summaries, version.Summary())
	}

	return summaries, nil
}

// Get returns one version, or ErrVersionNotFound.
func (s *Store) Get(ctx context.Context, botID string, versionNumber int) (*models.WorkflowVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewVersionError("Get", botID, versionNumber, err)
	}

	version, err := s.readVersion(botID, versionNumber)
	if err != nil {
		return nil, store.NewVersionError("Get", botID, versionNumber, err)
	}

	return version, nil
}

// Active returns the bot's live version, or ErrNoActiveVersion.
func (s *Store) Active(ctx context.Context, botID string) (*models.WorkflowVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewVersionError("Active", botID, 0, err)
	}

	active, err := s.findActive(botID)
	if err != nil {
		return nil, store.NewVersionError("Active", botID, 0, err)
	}

	if active == nil {
		return nil, store.NewVersionError("Active", botID, 0, store.ErrNoActiveVersion)
	}

	return active, nil
}

// HealthCheck verifies the root directory exists.
func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to do for files.
func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) versionNumbers(botID string) ([]int, error) {
	dir := s.botDir(botID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list version files: %w", err)
	}

	numbers := make([]int, 0, len(files))

	for _, name := range files {
		n, err := strconv.Atoi(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}

		numbers = append(numbers, n)
	}

	sort.Ints(numbers)

	return numbers, nil
}

func (s *Store) findActive(botID string) (*models.WorkflowVersion, error) {
	numbers, err := s.versionNumbers(botID)
	if err != nil {
		return nil, err
	}

	for _, n := range numbers {
		version, err := s.readVersion(botID, n)
		if err != nil {
			return nil, err
		}

		if version.Status == models.VersionStatusActive {
			return version, nil
		}
	}

	return nil, nil
}

func (s *Store) readVersion(botID string, versionNumber int) (*models.WorkflowVersion, error) {
	data, err := os.ReadFile(s.versionPath(botID, versionNumber))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrVersionNotFound
		}

		return nil, fmt.Errorf("failed to read version file: %w", err)
	}

	var version models.WorkflowVersion

	if err := json.Unmarshal(data, &version); err != nil {
		return nil, fmt.Errorf("failed to unmarshal version: %w", err)
	}

	return &version, nil
}

func (s *Store) writeVersion(version *models.WorkflowVersion) error {
	dir := s.botDir(version.BotID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create bot directory: %w", err)
	}

	data, err := json.MarshalIndent(version, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal version: %w", err)
	}

	path := s.versionPath(version.BotID, version.Version)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write version file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace version file: %w", err)
	}

	return nil
}
