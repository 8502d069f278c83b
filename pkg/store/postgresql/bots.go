package postgresql

import (
	"context"
	"fmt"
)

// BotRepository answers bot existence checks against the bots table.
type BotRepository struct {
	store *Store
}

// Bots returns the bot repository backed by this store's connection.
func (s *Store) Bots() *BotRepository {
	return &BotRepository{store: s}
}

// Exists reports whether the bot id is registered.
func (r *BotRepository) Exists(ctx context.Context, botID string) (bool, error) {
	var exists bool

	err := r.store.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM bots WHERE id = $1)", botID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bot existence: %w", err)
	}

	return exists, nil
}

// Register inserts a bot if it does not exist yet. Bot management proper
// lives outside the engine; this exists for provisioning and tests.
func (r *BotRepository) Register(ctx context.Context, botID, name string) error {
	_, err := r.store.db.ExecContext(ctx,
		"INSERT INTO bots (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING", botID, name)
	if err != nil {
		return fmt.Errorf("failed to register bot: %w", err)
	}

	return nil
}
