package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pipeline-graph/engine/internal/models"
)

type mockGraphRepo struct {
	mock.Mock
}

func (m *mockGraphRepo) ReplaceGraph(ctx context.Context, nodes []models.Node, edges []models.Edge, seeds map[string]models.Position) error {
	return m.Called(ctx, nodes, edges, seeds).Error(0)
}

func (m *mockGraphRepo) LoadGraph(ctx context.Context) ([]models.Node, []models.Edge, error) {
	args := m.Called(ctx)
	var nodes []models.Node
	var edges []models.Edge
	if v := args.Get(0); v != nil {
		nodes = v.([]models.Node)
	}
	if v := args.Get(1); v != nil {
		edges = v.([]models.Edge)
	}
	return nodes, edges, args.Error(2)
}

func (m *mockGraphRepo) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockGraphRepo) Reset(ctx context.Context, withLayout bool) error {
	return m.Called(ctx, withLayout).Error(0)
}

func (m *mockGraphRepo) Counts(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

type mockPositionRepo struct {
	mock.Mock
}

func (m *mockPositionRepo) Get(ctx context.Context, nodeID string) (models.Position, error) {
	args := m.Called(ctx, nodeID)
	return args.Get(0).(models.Position), args.Error(1)
}

func (m *mockPositionRepo) All(ctx context.Context) (map[string]models.Position, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(map[string]models.Position), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPositionRepo) Upsert(ctx context.Context, nodeID string, x, y float64) error {
	return m.Called(ctx, nodeID, x, y).Error(0)
}

func (m *mockPositionRepo) ResetAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockPositionRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
