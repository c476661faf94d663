package repository

import (
	"context"
	"database/sql"
	"sort"

	"github.com/pipeline-graph/engine/internal/models"
	appErr "github.com/pipeline-graph/engine/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// batchSize bounds rows per INSERT statement.
const batchSize = 500

// GraphRepository persists the node and edge sets as a unit.
type GraphRepository interface {
	// ReplaceGraph swaps the stored graph for nodes and edges in one
	// transaction. Seeds become layout only for nodes with no stored layout.
	ReplaceGraph(ctx context.Context, nodes []models.Node, edges []models.Edge, seeds map[string]models.Position) error
	// LoadGraph returns every node ordered by id and every edge ordered by id
	// from a single snapshot.
	LoadGraph(ctx context.Context) ([]models.Node, []models.Edge, error)
	Exists(ctx context.Context, id string) (bool, error)
	// Reset deletes all edges and nodes, and all layout when withLayout is set.
	Reset(ctx context.Context, withLayout bool) error
	Counts(ctx context.Context) (nodes, edges int64, err error)
}

type graphRepository struct {
	nodes BaseRepository[models.Node]
	edges BaseRepository[models.Edge]
	db    *gorm.DB
}

func NewGraphRepository(db *gorm.DB) GraphRepository {
	return &graphRepository{
		nodes: NewBaseRepository[models.Node](db, "id"),
		edges: NewBaseRepository[models.Edge](db, "id"),
		db:    db,
	}
}

func (r *graphRepository) ReplaceGraph(ctx context.Context, nodes []models.Node, edges []models.Edge, seeds map[string]models.Position) error {
	return withTx(ctx, r.db, nil, func(tx *gorm.DB) error {
		if err := deleteAll[models.Edge](tx); err != nil {
			return storeError(err, "delete edges failed")
		}
		if err := deleteAll[models.Node](tx); err != nil {
			return storeError(err, "delete nodes failed")
		}

		if len(nodes) > 0 {
			if err := tx.CreateInBatches(nodes, batchSize).Error; err != nil {
				return storeError(err, "insert nodes failed")
			}
		}
		if len(edges) > 0 {
			if err := tx.CreateInBatches(edges, batchSize).Error; err != nil {
				return storeError(err, "insert edges failed")
			}
		}

		if len(seeds) == 0 {
			return nil
		}
		positions := make([]models.NodePosition, 0, len(seeds))
		for id, p := range seeds {
			positions = append(positions, models.NodePosition{NodeID: id, X: p.X, Y: p.Y})
		}
		sort.Slice(positions, func(i, j int) bool { return positions[i].NodeID < positions[j].NodeID })

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "node_id"}},
			DoNothing: true,
		}).CreateInBatches(positions, batchSize).Error
		if err != nil {
			return storeError(err, "seed positions failed")
		}
		return nil
	})
}

func (r *graphRepository) LoadGraph(ctx context.Context) ([]models.Node, []models.Edge, error) {
	var opts *sql.TxOptions
	if r.db.Dialector.Name() == "postgres" {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}

	var nodes []models.Node
	var edges []models.Edge
	err := withTx(ctx, r.db, opts, func(tx *gorm.DB) error {
		if err := tx.Order("id").Find(&nodes).Error; err != nil {
			return storeError(err, "load nodes failed")
		}
		if err := tx.Order("id").Find(&edges).Error; err != nil {
			return storeError(err, "load edges failed")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

func (r *graphRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n models.Node
	if err := r.nodes.GetByID(ctx, id, &n); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *graphRepository) Reset(ctx context.Context, withLayout bool) error {
	return withTx(ctx, r.db, nil, func(tx *gorm.DB) error {
		if err := deleteAll[models.Edge](tx); err != nil {
			return storeError(err, "delete edges failed")
		}
		if err := deleteAll[models.Node](tx); err != nil {
			return storeError(err, "delete nodes failed")
		}
		if withLayout {
			if err := deleteAll[models.NodePosition](tx); err != nil {
				return storeError(err, "delete positions failed")
			}
		}
		return nil
	})
}

func (r *graphRepository) Counts(ctx context.Context) (int64, int64, error) {
	nodes, err := r.nodes.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	edges, err := r.edges.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	return nodes, edges, nil
}
