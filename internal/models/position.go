package models

import "time"

// Position is a 2-D layout coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodePosition is the persisted layout of a node, keyed by node id. It has no
// foreign key to nodes so it survives graph replacement.
type NodePosition struct {
	NodeID    string    `gorm:"primaryKey;type:varchar(255)" json:"node_id"`
	X         float64   `gorm:"not null;default:0" json:"x"`
	Y         float64   `gorm:"not null;default:0" json:"y"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name.
func (NodePosition) TableName() string { return "node_positions" }

// Position returns the coordinate pair.
func (p NodePosition) Position() Position {
	return Position{X: p.X, Y: p.Y}
}
