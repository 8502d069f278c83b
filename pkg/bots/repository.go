// Package bots abstracts the bot registry the engine consults for existence
// checks. Bot CRUD itself lives outside the engine.
package bots

import (
	"context"
	"sync"
)

// Repository confirms that a bot id refers to a real bot before versions are
// created for it.
type Repository interface {
	Exists(ctx context.Context, botID string) (bool, error)
}

// StaticRepository is an in-memory repository for tests and local development.
type StaticRepository struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewStaticRepository creates a repository seeded with the given bot ids.
func NewStaticRepository(ids ...string) *StaticRepository {
	repo := &StaticRepository{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		repo.ids[id] = struct{}{}
	}

	return repo
}

// Add registers a bot id.
func (r *StaticRepository) Add(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ids[id] = struct{}{}
}

// Exists reports whether the bot id is registered.
func (r *StaticRepository) Exists(_ context.Context, botID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.ids[botID]

	return ok, nil
}

// AllowAll accepts every bot id. Useful with the file store, which has no bot
// registry to consult.
type AllowAll struct{}

// Exists always reports true.
func (AllowAll) Exists(_ context.Context, _ string) (bool, error) {
	return true, nil
}
