package models

import (
	"time"

	"gorm.io/datatypes"
)

// MaxIDLength is the longest node id, in characters, the schema stores.
const MaxIDLength = 255

// Node is one pipeline object (table or job). Layout coordinates are not
// stored on the node row; X and Y are filled from node_positions at read time.
type Node struct {
	ID             string            `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Label          string            `gorm:"not null;default:''" json:"label"`
	Schema         string            `gorm:"not null;default:''" json:"schema"`
	Server         string            `gorm:"not null;default:''" json:"server"`
	Owner          string            `gorm:"not null;default:''" json:"owner"`
	CreationDate   string            `gorm:"not null;default:''" json:"creation_date"`
	LastUpdate     string            `gorm:"not null;default:''" json:"last_update"`
	CronExpression string            `gorm:"not null;default:''" json:"cron_expression"`
	NextExecution  string            `gorm:"not null;default:''" json:"next_execution"`
	CalendarString string            `gorm:"not null;default:''" json:"calendar_string"`
	Extra          datatypes.JSONMap `json:"extra,omitempty"`
	CreatedAt      time.Time         `json:"-"`

	X float64 `gorm:"-" json:"x"`
	Y float64 `gorm:"-" json:"y"`
}

// TableName pins the table name.
func (Node) TableName() string { return "nodes" }
