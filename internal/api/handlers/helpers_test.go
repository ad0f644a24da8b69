package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spottica/backend/internal/api/middleware"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/stretchr/testify/require"
)

var (
	alice = &entities.Identity{UserID: "11111111-1111-1111-1111-111111111111", Role: entities.RoleUser, Name: "Alice"}
	admin = &entities.Identity{UserID: "99999999-9999-9999-9999-999999999999", Role: entities.RoleAdmin, Name: "Root"}
)

func newRequest(method, target, body string, caller *entities.Identity) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if caller != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), caller))
	}
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}
