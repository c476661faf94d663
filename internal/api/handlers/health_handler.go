package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pipeline-graph/engine/internal/api/types"
	appErr "github.com/pipeline-graph/engine/pkg/errors"
)

const readinessTimeout = 2 * time.Second

// PingFunc checks a dependency.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	ping PingFunc
}

// NewHealthHandler returns a handler whose readiness probe calls ping. A nil
// ping is always ready.
func NewHealthHandler(ping PingFunc) *HealthHandler { return &HealthHandler{ping: ping} }

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: map[string]string{"status": "ok"}})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, appErr.Wrap(err, appErr.CodeUnavailable, "database unreachable"))
			return
		}
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: map[string]string{"status": "ready"}})
}
