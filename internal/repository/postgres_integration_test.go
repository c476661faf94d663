//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/pipeline-graph/engine/internal/models"
	"github.com/pipeline-graph/engine/pkg/database"
	appErr "github.com/pipeline-graph/engine/pkg/errors"
)

func TestPostgresRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("graph"),
		postgres.WithUsername("graph"),
		postgres.WithPassword("graph"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(ctx, dsn, database.Options{MaxRetries: 10})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	graphs := NewGraphRepository(db)
	positions := NewPositionRepository(db)

	nodes, edges := sampleGraph()
	require.NoError(t, graphs.ReplaceGraph(ctx, nodes, edges, map[string]models.Position{"c": {X: 1, Y: 1}}))
	require.NoError(t, positions.Upsert(ctx, "a", 5, 7))
	require.NoError(t, graphs.ReplaceGraph(ctx, nodes, edges, map[string]models.Position{"a": {X: 0, Y: 0}}))

	gotNodes, gotEdges, err := graphs.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, gotNodes, 3)
	assert.Len(t, gotEdges, 2)
	assert.Equal(t, "data", gotNodes[1].Extra["team"])

	p, err := positions.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.Position{X: 5, Y: 7}, p)

	err = graphs.ReplaceGraph(ctx, nil, []models.Edge{models.NewEdge("x", "y")}, nil)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnavailable))

	err = positions.Upsert(ctx, "ghost", 1, 1)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}
