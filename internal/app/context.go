package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/config"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/repo"
)

// ResolveSettings returns the stored settings, seeding the database from the
// workspace settings.yml (or the built-in defaults) on first use.
func ResolveSettings(ctx context.Context, workspace string, r repo.Repo) (*config.Config, error) {
	cfg, err := r.GetSettings(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	seed, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", config.Path(workspace), err)
	}
	if seed == nil {
		seed = config.Default()
	}
	if err := r.UpsertSettings(ctx, nil, seed); err != nil {
		return nil, fmt.Errorf("seed settings: %w", err)
	}
	return seed, nil
}
