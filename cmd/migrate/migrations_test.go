package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeline-graph/engine/internal/repository"
	"github.com/pipeline-graph/engine/pkg/database"
)

func TestMissingTables(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Open(ctx, "file::memory:", database.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	assert.ElementsMatch(t, []string{"nodes", "edges", "node_positions"}, missingTables(db))
	require.NoError(t, repository.Migrate(ctx, db))
	assert.Empty(t, missingTables(db))
}
