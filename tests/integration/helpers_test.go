package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/routes"
	"github.com/lumme/lumme-api/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// apiHarness is the full router backed by a fresh database
type apiHarness struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(t)

	db := testutil.UseTestDB(t)
	cfg := testutil.TestConfig(t)
	return &apiHarness{t: t, router: routes.SetupRouter(cfg), db: db, cfg: cfg}
}

// do sends a JSON request with an optional bearer token and decodes the JSON response
func (h *apiHarness) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.send(req, token)
}

func (h *apiHarness) send(req *http.Request, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	h.t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 && json.Valid(w.Body.Bytes()) {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func dataOf(response map[string]interface{}) map[string]interface{} {
	return response["data"].(map[string]interface{})
}
