package kind_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frontier-realms/world-server/internal/kind"
)

func TestHTTPStatus_MapsEveryKind(t *testing.T) {
	cases := map[kind.Kind]int{
		kind.Unauthorized:   http.StatusUnauthorized,
		kind.Forbidden:      http.StatusForbidden,
		kind.NotFound:       http.StatusNotFound,
		kind.BadRequest:     http.StatusBadRequest,
		kind.Conflict:       http.StatusConflict,
		kind.ValidationError: http.StatusUnprocessableEntity,
		kind.Internal:       http.StatusInternalServerError,
	}
	for k, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus(k))
	}
}

func TestWrap_PreservesCauseInMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := kind.Internalf(cause, "open database")

	assert.Contains(t, err.Error(), "open database")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestAs_ExtractsFromWrappedError(t *testing.T) {
	original := kind.NotFoundf("village %s not found", "abc")
	wrapped := fmt.Errorf("lookup failed: %w", original)

	extracted, ok := kind.As(wrapped)
	require := assert.New(t)
	require.True(ok)
	require.Equal(kind.NotFound, extracted.Kind)
}

func TestAs_FalseForPlainError(t *testing.T) {
	_, ok := kind.As(errors.New("plain"))
	assert.False(t, ok)
}
