package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataMapping(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusBadRequest},
		{CodeClosed, http.StatusBadRequest},
		{CodeProfileIncomplete, http.StatusBadRequest},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeDependency, http.StatusBadRequest},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.status, MetadataFor(tc.code).HTTPStatus, string(tc.code))
	}
}

func TestForbiddenKeepsLegacyMessage(t *testing.T) {
	require.Equal(t, PermissionDeniedMessage, MetadataFor(CodeForbidden).PublicMessage)
}

func TestFieldsScoping(t *testing.T) {
	err := New(CodeConflict, "user with this email already exists").WithField("email")
	require.Equal(t, map[string][]string{"email": {"user with this email already exists"}}, err.Fields())

	plain := New(CodeNotFound, "job does not exist")
	require.Equal(t, map[string][]string{"message": {"job does not exist"}}, plain.Fields())

	multi := New(CodeValidation, "validation failed").WithFields(map[string][]string{
		"email":    {"is required"},
		"password": {"must be at least 8"},
	})
	require.Len(t, multi.Fields(), 2)
}

func TestAsUnwrapsChains(t *testing.T) {
	inner := New(CodeClosed, "deadline passed")
	wrapped := fmt.Errorf("apply: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	require.Equal(t, CodeClosed, typed.Code())

	require.Nil(t, As(errors.New("plain")))
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, errors.New("connection refused"), "send email")
	dump := Dump(err)
	require.Equal(t, CodeDependency, dump.Code)
	require.Len(t, dump.Chain, 2)
}
