package responses

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestWriteErrorScopesFieldMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "title is required").WithField("title")

	WriteError(context.Background(), testLogger(), rec, err)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"title is required"}, body["title"])
}

func TestWriteErrorPermissionDeniedIs401(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)

	WriteError(context.Background(), testLogger(), rec, err)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{pkgerrors.PermissionDeniedMessage}, body["message"])
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInternal, "pq: connection refused")

	WriteError(context.Background(), testLogger(), rec, err)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotContains(t, body["message"][0], "pq:")
}

func TestWritePageEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://api.test/jobs?limit=2&offset=2", nil)

	WritePage(rec, req, pagination.Params{Limit: 2, Offset: 2}, 5, []string{"a", "b"})

	var body struct {
		Count    int64    `json:"count"`
		Next     *string  `json:"next"`
		Previous *string  `json:"previous"`
		Results  []string `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, 5, body.Count)
	require.NotNil(t, body.Next)
	require.NotNil(t, body.Previous)
	require.Len(t, body.Results, 2)
}
