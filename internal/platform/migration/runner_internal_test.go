// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gymroster/data/migrations"
)

func TestPgx5DSN(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"postgres://roster:secret@db:5432/gym", "pgx5://roster:secret@db:5432/gym"},
		{"postgresql://roster@db/gym?sslmode=disable", "pgx5://roster@db/gym?sslmode=disable"},
		{"pgx5://roster@db/gym", "pgx5://roster@db/gym"},
		{"host=db user=roster", "host=db user=roster"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, pgx5DSN(tt.input))
		})
	}
}

/*
TestEmbeddedMigrations checks every up migration ships with its down pair.
*/
func TestEmbeddedMigrations(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	downs, err := fs.Glob(migrations.FS, "*.down.sql")
	require.NoError(t, err)
	assert.Len(t, downs, len(ups))

	schema, err := fs.ReadFile(migrations.FS, "000001_training_session.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(schema), "training.session")
}
