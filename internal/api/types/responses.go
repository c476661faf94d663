package types

import "github.com/pipeline-graph/engine/internal/models"

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
}

type UploadResponse struct {
	Message        string `json:"message"`
	NodeCount      int    `json:"node_count"`
	EdgeCount      int    `json:"edge_count"`
	SkippedRows    int    `json:"skipped_rows"`
	MalformedRows  int    `json:"malformed_rows"`
	DroppedEdges   int    `json:"dropped_edges"`
	DuplicateEdges int    `json:"duplicate_edges"`
	Checksum       string `json:"checksum"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// PositionResponse is the body of GET /positions/{id}.
type PositionResponse struct {
	ID       string          `json:"id"`
	Position models.Position `json:"position"`
}
