package repository

import (
	"context"
	"fmt"

	"github.com/pipeline-graph/engine/internal/models"
	"gorm.io/gorm"
)

// Migrate creates the graph tables if they do not exist. It is safe to run on
// every start.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)

	if err := db.AutoMigrate(&models.Node{}, &models.NodePosition{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, m := range []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"create edges table", createEdgesTable},
		{"create edge indexes", createEdgeIndexes},
	} {
		if err := m.fn(db); err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
	}
	return nil
}

// createEdgesTable is hand-written because the foreign keys on source and
// target cannot be expressed on Edge without association fields.
func createEdgesTable(db *gorm.DB) error {
	return db.Exec(`
		CREATE TABLE IF NOT EXISTS edges (
			id     VARCHAR(512) PRIMARY KEY,
			source VARCHAR(255) NOT NULL REFERENCES nodes(id),
			target VARCHAR(255) NOT NULL REFERENCES nodes(id)
		)
	`).Error
}

func createEdgeIndexes(db *gorm.DB) error {
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target)`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
