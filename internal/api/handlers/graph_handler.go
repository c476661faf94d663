package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pipeline-graph/engine/internal/api/types"
	"github.com/pipeline-graph/engine/internal/api/validators"
	"github.com/pipeline-graph/engine/internal/services"
	appErr "github.com/pipeline-graph/engine/pkg/errors"
)

// UploadField is the multipart form field carrying the file.
const UploadField = "file"

// MaxPositionBody caps the body of POST /positions.
const MaxPositionBody = 64 << 10

type GraphHandler struct {
	svc       services.GraphService
	maxUpload int64
	validate  *validator.Validate
}

func NewGraphHandler(svc services.GraphService, maxUploadBytes int64) *GraphHandler {
	return &GraphHandler{svc: svc, maxUpload: maxUploadBytes, validate: validators.New()}
}

// Upload accepts a multipart form with a "file" field or a raw text body.
func (h *GraphHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	data, err := h.readUpload(r)
	if err != nil {
		writeError(w, r, types.HTTPStatus(err), err)
		return
	}

	res, err := h.svc.Upload(r.Context(), data)
	if err != nil {
		writeError(w, r, types.HTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, types.UploadResponse{
		Message:        "File processed successfully",
		NodeCount:      res.NodeCount,
		EdgeCount:      res.EdgeCount,
		SkippedRows:    res.SkippedRows,
		MalformedRows:  res.MalformedRows,
		DroppedEdges:   res.DroppedEdges,
		DuplicateEdges: res.DuplicateEdges,
		Checksum:       res.Checksum,
	})
}

func (h *GraphHandler) readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		return data, uploadError(err)
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return nil, uploadError(err)
	}
	defer r.MultipartForm.RemoveAll()

	f, _, err := r.FormFile(UploadField)
	if err != nil {
		return nil, appErr.Newf(appErr.CodeMalformedInput, "multipart field %q is missing", UploadField)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	return data, uploadError(err)
}

func uploadError(err error) error {
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return appErr.Newf(appErr.CodeTooLarge, "upload exceeds %d bytes", tooLarge.Limit)
	}
	return appErr.Wrap(err, appErr.CodeMalformedInput, "upload body is unreadable")
}

// Graph returns every node with layout and every edge.
func (h *GraphHandler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GetGraph(r.Context())
	if err != nil {
		writeError(w, r, types.HTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Positions stores the layout of one node.
func (h *GraphHandler) Positions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxPositionBody)

	var req types.PositionRequest
	if err := decodeStrict(r.Body, &req); err != nil {
		writeError(w, r, types.HTTPStatus(err), err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, r, http.StatusBadRequest, string(appErr.CodeInvalid), err.Error())
		return
	}

	err := h.svc.SetPosition(r.Context(), services.PositionUpdate{
		ID: req.ID,
		X:  *req.Position.X,
		Y:  *req.Position.Y,
	})
	if err != nil {
		writeError(w, r, types.HTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, types.MessageResponse{Message: "Position updated"})
}

// decodeStrict decodes exactly one JSON value and rejects anything after it.
func decodeStrict(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil {
		if !errors.Is(dec.Decode(&struct{}{}), io.EOF) {
			return appErr.New(appErr.CodeInvalid, "invalid json: unexpected data after object")
		}
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return appErr.Newf(appErr.CodeTooLarge, "body exceeds %d bytes", tooLarge.Limit)
	}
	return appErr.New(appErr.CodeInvalid, "invalid json: "+err.Error())
}

// Position returns the stored layout of one node, (0,0) when none is stored.
func (h *GraphHandler) Position(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pos, err := h.svc.GetPosition(r.Context(), id)
	if err != nil {
		writeError(w, r, types.HTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, types.PositionResponse{ID: id, Position: pos})
}

// Reset deletes the graph and its layout. Any failure is a 500.
func (h *GraphHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, types.StatusResponse{Status: "reset"})
}

func (h *GraphHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, types.HTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
