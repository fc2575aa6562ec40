package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add sync logs table", "add_sync_logs_table"},
		{"Add-Network-Connections", "add_network_connections"},
		{"SEED_COUNTRIES", "seed_countries"},
		{"add__purchase__index", "add_purchase_index"},
		{"Coupons V2", "coupons_v2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add sync logs table", "Track sync runs per connection")
	require.NoError(t, err)

	// Version is a 14-digit timestamp so files sort by creation time.
	assert.Len(t, mf.Version, 14)
	assert.Equal(t, mf.Version+"_add_sync_logs_table.up.sql", filepath.Base(mf.UpPath))
	assert.Equal(t, mf.Version+"_add_sync_logs_table.down.sql", filepath.Base(mf.DownPath))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add sync logs table")
	assert.Contains(t, string(up), "Track sync runs per connection")
	assert.Contains(t, string(up), "Write your UP migration SQL here")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
	assert.Contains(t, string(down), "Write your DOWN migration SQL here")
}

func TestCreateMigrationCreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "db", "migrations")

	mf, err := CreateMigration(nested, "init", "initial schema")
	require.NoError(t, err)
	require.NotNil(t, mf)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()

	// Written out of order to check sorting.
	for _, name := range []string{
		"000003_add_purchases.up.sql",
		"000003_add_purchases.down.sql",
		"000001_init_schema.up.sql",
		"000001_init_schema.down.sql",
		"000002_seed_countries.up.sql",
		"000002_seed_countries.down.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- sql"), 0644))
	}

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_init_schema",
		"000002_seed_countries",
		"000003_add_purchases",
	}, migrations)
}

func TestListMigrationsEmptyAndMissing(t *testing.T) {
	migrations, err := ListMigrations(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, migrations)

	migrations, err = ListMigrations(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestListMigrationsIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"000001_init.up.sql",
		"000001_init.down.sql",
		"README.md",
		".gitkeep",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.up.sql"), 0755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init"}, migrations)
}

func TestCreateThenListRoundTrip(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add coupons", "")
	require.NoError(t, err)

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	assert.True(t, strings.HasPrefix(migrations[0], mf.Version))
	assert.True(t, strings.HasSuffix(migrations[0], "add_coupons"))
}
