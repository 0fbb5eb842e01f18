package docs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecDocumentsEveryRoute(t *testing.T) {
	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(Spec, &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)

	want := map[string][]string{
		"/books":              {"get", "post"},
		"/books/search":       {"get"},
		"/books/{id}":         {"get"},
		"/books/{id}/reviews": {"get", "post"},
		"/reviews/{id}":       {"put", "delete"},
	}
	for path, methods := range want {
		require.Contains(t, doc.Paths, path)
		for _, m := range methods {
			assert.Contains(t, doc.Paths[path], m, "%s %s", m, path)
		}
	}
}

func TestServeSpecAndUI(t *testing.T) {
	rec := httptest.NewRecorder()
	ServeSpec(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, Spec, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	ServeUI(rec, httptest.NewRequest(http.MethodGet, "/swagger/", nil))
	assert.Contains(t, rec.Body.String(), `url: "/swagger/doc.json"`)
}
