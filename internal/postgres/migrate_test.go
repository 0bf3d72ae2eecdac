package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://app:secret@db:5432/booking?sslmode=disable": "pgx5://app:secret@db:5432/booking?sslmode=disable",
		"postgresql://db/booking":                               "pgx5://db/booking",
		"pgx5://db/booking":                                     "pgx5://db/booking",
	}
	for in, want := range cases {
		assert.Equal(t, want, MigrateURL(in), in)
	}
}

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(migrationsFS, down)
		assert.NoError(t, err, "missing %s", down)
	}
}
