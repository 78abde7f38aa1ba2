package app

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/config"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/db"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/migrate"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/repo"
)

func TestResolveSettingsSeedsFromWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(config.Path(dir), []byte("activities:\n  required_minutes: 360\n"), 0o644))
	conn, err := db.Open(db.Config{Workspace: dir})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	r := repo.New(conn)
	ctx := context.Background()

	cfg, err := ResolveSettings(ctx, dir, r)
	require.NoError(t, err)
	require.Equal(t, 360, cfg.Activities.RequiredMinutes)
	require.Equal(t, "Europe/Rome", cfg.Timezone)

	// the database copy wins once seeded
	require.NoError(t, os.WriteFile(config.Path(dir), []byte("activities:\n  required_minutes: 60\n"), 0o644))
	cfg, err = ResolveSettings(ctx, dir, r)
	require.NoError(t, err)
	require.Equal(t, 360, cfg.Activities.RequiredMinutes)
}

func TestResolveSettingsDefaults(t *testing.T) {
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))

	cfg, err := ResolveSettings(context.Background(), dir, repo.New(conn))
	require.NoError(t, err)
	require.Equal(t, 480, cfg.Activities.RequiredMinutes)
}
