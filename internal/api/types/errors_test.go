package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	appErr "github.com/pipeline-graph/engine/pkg/errors"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{appErr.New(appErr.CodeMalformedInput, "bad header"), http.StatusBadRequest},
		{appErr.New(appErr.CodeInvalid, "id is required"), http.StatusBadRequest},
		{appErr.New(appErr.CodeNotFound, "node not found"), http.StatusNotFound},
		{appErr.New(appErr.CodeTooLarge, "too big"), http.StatusRequestEntityTooLarge},
		{appErr.New(appErr.CodeUnavailable, "store down"), http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", appErr.New(appErr.CodeNotFound, "x")), http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}

func TestFromAppErrorHidesPlainErrors(t *testing.T) {
	assert.Nil(t, FromAppError(nil))

	got := FromAppError(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal", got.Code)
	assert.NotContains(t, got.Message, "password")

	got = FromAppError(fmt.Errorf("ctx: %w", appErr.New(appErr.CodeNotFound, "node not found")))
	assert.Equal(t, &APIError{Code: "not_found", Message: "node not found"}, got)
}
