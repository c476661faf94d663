package types

import (
	"errors"
	"net/http"

	appErr "github.com/pipeline-graph/engine/pkg/errors"
)

// FromAppError converts err into the wire error shape. Errors that are not
// AppErrors are reported as unknown with a generic message.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var e *appErr.AppError
	if errors.As(err, &e) {
		return &APIError{Code: string(e.Code), Message: e.Message}
	}
	return &APIError{Code: string(appErr.CodeInternal), Message: http.StatusText(http.StatusInternalServerError)}
}

// HTTPStatus maps an error code to its response status.
func HTTPStatus(err error) int {
	switch appErr.CodeOf(err) {
	case appErr.CodeMalformedInput, appErr.CodeInvalid:
		return http.StatusBadRequest
	case appErr.CodeNotFound:
		return http.StatusNotFound
	case appErr.CodeConflict:
		return http.StatusConflict
	case appErr.CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case appErr.CodeUnavailable, appErr.CodeDeadline:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
