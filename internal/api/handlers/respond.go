package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pipeline-graph/engine/internal/api/middleware"
	"github.com/pipeline-graph/engine/internal/api/types"
	"github.com/pipeline-graph/engine/pkg/logger"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   types.FromAppError(err),
		Meta:    meta(r),
	})
}

func writeErrorStr(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   &types.APIError{Code: code, Message: msg},
		Meta:    meta(r),
	})
}

func meta(r *http.Request) *types.Meta {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		return &types.Meta{RequestID: id}
	}
	return nil
}
