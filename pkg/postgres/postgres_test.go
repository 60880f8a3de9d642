package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrations_SortsAndSkipsApplied(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_add_index.sql":   {Data: []byte("CREATE INDEX ...")},
		"migrations/001_create.sql":      {Data: []byte("CREATE TABLE ...")},
		"migrations/003_seed.sql":        {Data: []byte("INSERT ...")},
		"migrations/README.md":           {Data: []byte("notes")},
		"migrations/archive/000_old.sql": {Data: []byte("DROP ...")},
	}

	pending, err := pendingMigrations(fsys, map[string]bool{"002_add_index.sql": true})
	require.NoError(t, err)

	assert.Equal(t, []string{"001_create.sql", "003_seed.sql"}, pending)
}

func TestPendingMigrations_MissingDirectory(t *testing.T) {
	_, err := pendingMigrations(fstest.MapFS{}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read migrations directory")
}

func TestEmbeddedMigrations(t *testing.T) {
	pending, err := pendingMigrations(migrationsFS, map[string]bool{})
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	assert.Equal(t, "001_create_selection_tables.sql", pending[0])
}
