package main

import (
	"gorm.io/gorm"

	"github.com/pipeline-graph/engine/internal/models"
)

// tables lists every table the engine expects after migration.
func tables() []string {
	return []string{
		models.Node{}.TableName(),
		models.Edge{}.TableName(),
		models.NodePosition{}.TableName(),
	}
}

func missingTables(db *gorm.DB) []string {
	var missing []string
	for _, t := range tables() {
		if !db.Migrator().HasTable(t) {
			missing = append(missing, t)
		}
	}
	return missing
}
