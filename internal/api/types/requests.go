package types

// PositionRequest is the body of POST /positions.
type PositionRequest struct {
	ID       string       `json:"id" validate:"required"`
	Position *Coordinates `json:"position" validate:"required"`
}

type Coordinates struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}
