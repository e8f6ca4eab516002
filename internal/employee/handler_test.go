package employee

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()
	h := NewHandler(newService(t), zap.NewNop().Sugar())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /employees", h.List)
	mux.HandleFunc("POST /employees", h.Create)
	mux.HandleFunc("GET /employees/{id}", h.Get)
	mux.HandleFunc("PUT /employees/{id}", h.Update)
	mux.HandleFunc("DELETE /employees/{id}", h.Delete)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["message"]
}

func TestHandlerCreateAndFetch(t *testing.T) {
	mux := newMux(t)

	rec := do(mux, http.MethodPost, "/employees", `{"name":"Okot Simon","established_posts":3,"filled_posts":1,"date_of_promotion":"2023-06-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Okot Simon", created["name"])
	assert.EqualValues(t, 2, created["vacant_posts"])
	assert.Equal(t, "2023-06-01", created["date_of_promotion"])
	assert.Equal(t, "1 years, 0 months, 0 days", created["time_in_position"])
	assert.Nil(t, created["grade"])

	rec = do(mux, http.MethodGet, "/employees/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(mux, http.MethodGet, "/employees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestHandlerRejectsBadInput(t *testing.T) {
	mux := newMux(t)

	rec := do(mux, http.MethodPost, "/employees", `{"name":"X","salary":100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPost, "/employees", `{"grade":"U1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name is required", message(t, rec))

	rec = do(mux, http.MethodPost, "/employees", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodGet, "/employees/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdateAndDelete(t *testing.T) {
	mux := newMux(t)
	rec := do(mux, http.MethodPost, "/employees", `{"name":"Apio Jane","grade":"U7"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(mux, http.MethodPut, "/employees/1", `{"grade":null,"district":"gulu"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Nil(t, updated["grade"])
	assert.Equal(t, "gulu", updated["district"])
	assert.Equal(t, "Apio Jane", updated["name"])

	rec = do(mux, http.MethodPut, "/employees/999", `{"grade":"U1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Employee not found", message(t, rec))

	rec = do(mux, http.MethodDelete, "/employees/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Employee deleted successfully", message(t, rec))

	rec = do(mux, http.MethodDelete, "/employees/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
