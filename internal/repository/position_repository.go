package repository

import (
	"context"

	"github.com/pipeline-graph/engine/internal/models"
	appErr "github.com/pipeline-graph/engine/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PositionRepository persists layout coordinates keyed by node id.
type PositionRepository interface {
	// Get returns the stored position of nodeID, or (0,0) when none is stored.
	Get(ctx context.Context, nodeID string) (models.Position, error)
	All(ctx context.Context) (map[string]models.Position, error)
	// Upsert stores the position of an existing node. It returns a not_found
	// error when no node has that id.
	Upsert(ctx context.Context, nodeID string, x, y float64) error
	ResetAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

type positionRepository struct {
	BaseRepository[models.NodePosition]
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{
		BaseRepository: NewBaseRepository[models.NodePosition](db, "node_id"),
		db:             db,
	}
}

func (r *positionRepository) Get(ctx context.Context, nodeID string) (models.Position, error) {
	var p models.NodePosition
	if err := r.GetByID(ctx, nodeID, &p); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return models.Position{}, nil
		}
		return models.Position{}, err
	}
	return p.Position(), nil
}

func (r *positionRepository) All(ctx context.Context) (map[string]models.Position, error) {
	rows, err := r.List(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Position, len(rows))
	for _, p := range rows {
		out[p.NodeID] = p.Position()
	}
	return out, nil
}

func (r *positionRepository) Upsert(ctx context.Context, nodeID string, x, y float64) error {
	return withTx(ctx, r.db, nil, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Node{}).Where("id = ?", nodeID).Count(&n).Error; err != nil {
			return storeError(err, "lookup node failed")
		}
		if n == 0 {
			return appErr.New(appErr.CodeNotFound, "node not found").WithMeta("id", nodeID)
		}

		pos := models.NodePosition{NodeID: nodeID, X: x, Y: y}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "node_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"x", "y", "updated_at"}),
		}).Create(&pos).Error
		if err != nil {
			return storeError(err, "upsert position failed")
		}
		return nil
	})
}

func (r *positionRepository) ResetAll(ctx context.Context) error {
	return withTx(ctx, r.db, nil, func(tx *gorm.DB) error {
		if err := deleteAll[models.NodePosition](tx); err != nil {
			return storeError(err, "delete positions failed")
		}
		return nil
	})
}
