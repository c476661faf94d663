package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pipeline-graph/engine/internal/models"
	"github.com/pipeline-graph/engine/pkg/database"
	appErr "github.com/pipeline-graph/engine/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Open(ctx, "file::memory:", database.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, Migrate(ctx, db))
	return db
}

func sampleGraph() ([]models.Node, []models.Edge) {
	nodes := []models.Node{
		{ID: "b", Label: "b", Owner: "bob", Extra: map[string]any{"team": "data"}},
		{ID: "a", Label: "a", CronExpression: "0 0 * * *", NextExecution: "2024-01-02T00:00:00"},
		{ID: "c", Label: "c"},
	}
	edges := []models.Edge{models.NewEdge("b", "c"), models.NewEdge("a", "b")}
	return nodes, edges
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(context.Background(), db))

	for _, table := range []string{"nodes", "edges", "node_positions"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestReplaceAndLoadGraph(t *testing.T) {
	ctx := context.Background()
	repo := NewGraphRepository(newTestDB(t))

	nodes, edges := sampleGraph()
	require.NoError(t, repo.ReplaceGraph(ctx, nodes, edges, nil))

	gotNodes, gotEdges, err := repo.LoadGraph(ctx)
	require.NoError(t, err)

	require.Len(t, gotNodes, 3)
	assert.Equal(t, "a", gotNodes[0].ID)
	assert.Equal(t, "2024-01-02T00:00:00", gotNodes[0].NextExecution)
	assert.Equal(t, "bob", gotNodes[1].Owner)
	assert.Equal(t, "data", gotNodes[1].Extra["team"])
	assert.Equal(t, []models.Edge{models.NewEdge("a", "b"), models.NewEdge("b", "c")}, gotEdges)

	n, e, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, int64(2), e)
}

func TestReplaceGraphDiscardsPreviousGraph(t *testing.T) {
	ctx := context.Background()
	repo := NewGraphRepository(newTestDB(t))

	nodes, edges := sampleGraph()
	require.NoError(t, repo.ReplaceGraph(ctx, nodes, edges, nil))
	require.NoError(t, repo.ReplaceGraph(ctx, []models.Node{{ID: "z", Label: "z"}}, nil, nil))

	gotNodes, gotEdges, err := repo.LoadGraph(ctx)
	require.NoError(t, err)
	require.Len(t, gotNodes, 1)
	assert.Equal(t, "z", gotNodes[0].ID)
	assert.Empty(t, gotEdges)

	ok, err := repo.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.Exists(ctx, "z")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReplaceGraphRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	repo := NewGraphRepository(newTestDB(t))

	nodes, edges := sampleGraph()
	require.NoError(t, repo.ReplaceGraph(ctx, nodes, edges, nil))

	// the edge references a node that is not being inserted
	err := repo.ReplaceGraph(ctx,
		[]models.Node{{ID: "x", Label: "x"}},
		[]models.Edge{models.NewEdge("ghost", "x")},
		nil,
	)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnavailable))

	gotNodes, gotEdges, err := repo.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, gotNodes, 3)
	assert.Len(t, gotEdges, 2)
}

func TestSeedsDoNotOverrideStoredLayout(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	graphs := NewGraphRepository(db)
	positions := NewPositionRepository(db)

	nodes, edges := sampleGraph()
	require.NoError(t, graphs.ReplaceGraph(ctx, nodes, edges, nil))
	require.NoError(t, positions.Upsert(ctx, "a", 5, 7))

	seeds := map[string]models.Position{"a": {X: 100, Y: 100}, "c": {X: 1, Y: 2}}
	require.NoError(t, graphs.ReplaceGraph(ctx, nodes, edges, seeds))

	all, err := positions.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]models.Position{"a": {X: 5, Y: 7}, "c": {X: 1, Y: 2}}, all)
}

func TestPositionsSurviveReplacement(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	graphs := NewGraphRepository(db)
	positions := NewPositionRepository(db)

	nodes, edges := sampleGraph()
	require.NoError(t, graphs.ReplaceGraph(ctx, nodes, edges, nil))
	require.NoError(t, positions.Upsert(ctx, "b", 1.5, -2))

	// b disappears and comes back
	require.NoError(t, graphs.ReplaceGraph(ctx, []models.Node{{ID: "a", Label: "a"}}, nil, nil))
	require.NoError(t, graphs.ReplaceGraph(ctx, nodes, edges, nil))

	p, err := positions.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, models.Position{X: 1.5, Y: -2}, p)
}

func TestUpsertPosition(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	graphs := NewGraphRepository(db)
	positions := NewPositionRepository(db)

	nodes, edges := sampleGraph()
	require.NoError(t, graphs.ReplaceGraph(ctx, nodes, edges, nil))

	require.NoError(t, positions.Upsert(ctx, "a", 1, 2))
	require.NoError(t, positions.Upsert(ctx, "a", 3, 4))

	p, err := positions.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.Position{X: 3, Y: 4}, p)

	n, err := positions.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	err = positions.Upsert(ctx, "ghost", 1, 1)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	p, err = positions.Get(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, models.Position{}, p)
}

func TestGetPositionDefaultsToOrigin(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, NewGraphRepository(db).ReplaceGraph(ctx, []models.Node{{ID: "a", Label: "a"}}, nil, nil))

	p, err := NewPositionRepository(db).Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.Position{X: 0, Y: 0}, p)

	p, err = NewPositionRepository(db).Get(ctx, "never-set")
	require.NoError(t, err)
	assert.Equal(t, models.Position{}, p)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	graphs := NewGraphRepository(db)
	positions := NewPositionRepository(db)

	nodes, edges := sampleGraph()
	require.NoError(t, graphs.ReplaceGraph(ctx, nodes, edges, nil))
	require.NoError(t, positions.Upsert(ctx, "a", 1, 2))

	require.NoError(t, graphs.Reset(ctx, false))
	n, e, err := graphs.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, e)
	kept, err := positions.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), kept)

	require.NoError(t, graphs.Reset(ctx, true))
	kept, err = positions.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, kept)

	// reset of an empty store is fine
	require.NoError(t, graphs.Reset(ctx, true))
	require.NoError(t, positions.ResetAll(ctx))
}

func TestLoadEmptyGraph(t *testing.T) {
	nodes, edges, err := NewGraphRepository(newTestDB(t)).LoadGraph(context.Background())
	require.NoError(t, err)
	assert.Empty(t, nodes)
	assert.Empty(t, edges)
}

func TestCanceledContextIsUnavailable(t *testing.T) {
	repo := NewGraphRepository(newTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := repo.LoadGraph(ctx)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
}

func TestStoreError(t *testing.T) {
	assert.NoError(t, storeError(nil, "x"))

	nf := appErr.New(appErr.CodeNotFound, "node not found")
	assert.Same(t, nf, storeError(nf, "x"))

	var ae *appErr.AppError
	err := storeError(context.DeadlineExceeded, "load failed")
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, appErr.CodeUnavailable, ae.Code)
	assert.Equal(t, true, ae.Meta["timeout"])
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = storeError(&pgconn.PgError{Code: "40001"}, "commit failed")
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "40001", ae.Meta["sqlstate"])
}
