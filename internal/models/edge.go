package models

// EdgeSeparator joins source and target into an edge id.
const EdgeSeparator = "->"

// Edge means Target depends on Source. Source and Target reference nodes(id);
// the foreign keys are created by the schema migration.
type Edge struct {
	ID     string `gorm:"primaryKey;type:varchar(512)" json:"id"`
	Source string `gorm:"type:varchar(255);not null;index" json:"source"`
	Target string `gorm:"type:varchar(255);not null;index" json:"target"`
}

// TableName pins the table name.
func (Edge) TableName() string { return "edges" }

// EdgeID is the deterministic id of the source -> target pair.
func EdgeID(source, target string) string {
	return source + EdgeSeparator + target
}

// NewEdge builds an edge with its derived id.
func NewEdge(source, target string) Edge {
	return Edge{ID: EdgeID(source, target), Source: source, Target: target}
}
