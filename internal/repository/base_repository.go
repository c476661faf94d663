package repository

import (
	"context"
	"database/sql"
	"errors"

	appErr "github.com/pipeline-graph/engine/pkg/errors"
	"gorm.io/gorm"
)

// BaseRepository defines the operations shared by every table.
type BaseRepository[T any] interface {
	GetByID(ctx context.Context, id any, dest *T) error
	List(ctx context.Context, order string) ([]T, error)
	Count(ctx context.Context) (int64, error)
}

type baseRepository[T any] struct {
	db  *gorm.DB
	key string
}

// NewBaseRepository returns a BaseRepository over T whose primary key column is key.
func NewBaseRepository[T any](db *gorm.DB, key string) BaseRepository[T] {
	return &baseRepository[T]{db: db, key: key}
}

func (r *baseRepository[T]) GetByID(ctx context.Context, id any, dest *T) error {
	if err := r.db.WithContext(ctx).First(dest, r.key+" = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "entity not found").WithMeta("id", id)
		}
		return storeError(err, "get entity failed")
	}
	return nil
}

func (r *baseRepository[T]) List(ctx context.Context, order string) ([]T, error) {
	var out []T
	q := r.db.WithContext(ctx)
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, storeError(err, "list entities failed")
	}
	return out, nil
}

func (r *baseRepository[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	var t T
	if err := r.db.WithContext(ctx).Model(&t).Count(&n).Error; err != nil {
		return 0, storeError(err, "count entities failed")
	}
	return n, nil
}

// deleteAll removes every row of T inside tx.
func deleteAll[T any](tx *gorm.DB) error {
	var t T
	return tx.Where("1 = 1").Delete(&t).Error
}

// withTx runs fn in a transaction, rolling back on any error.
func withTx(ctx context.Context, db *gorm.DB, opts *sql.TxOptions, fn func(tx *gorm.DB) error) error {
	tx := db.WithContext(ctx).Begin(opts)
	if tx.Error != nil {
		return storeError(tx.Error, "begin transaction failed")
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return storeError(err, "commit transaction failed")
	}
	return nil
}
