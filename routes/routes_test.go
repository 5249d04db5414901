package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumme/lumme-api/tests/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCorsConfig(t *testing.T) {
	tests := []struct {
		name             string
		origins          []string
		allowAll         bool
		allowCredentials bool
	}{
		{"no origins configured", nil, true, false},
		{"wildcard", []string{"*"}, true, false},
		{"wildcard among origins", []string{"https://lumme.test", "*"}, true, false},
		{"explicit origins", []string{"https://lumme.test", "https://admin.lumme.test"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := corsConfig(tt.origins)
			assert.Equal(t, tt.allowAll, cfg.AllowAllOrigins)
			assert.Equal(t, tt.allowCredentials, cfg.AllowCredentials)
			assert.NoError(t, cfg.Validate())
			if !tt.allowAll {
				assert.Equal(t, tt.origins, cfg.AllowOrigins)
			}
		})
	}
}

func TestSetupRouterRegistersEveryEndpoint(t *testing.T) {
	cfg := testutil.TestConfig(t)
	router := SetupRouter(cfg)

	registered := map[string]bool{}
	for _, route := range router.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"GET /api/health",
		"GET /api/database/status",
		"POST /api/auth/register",
		"POST /api/auth/login",
		"GET /api/users/me",
		"PUT /api/users/me",
		"PUT /api/admin/users/:id/status",
		"GET /api/cart",
		"POST /api/cart",
		"PUT /api/cart/:product_id",
		"DELETE /api/cart/:product_id",
		"GET /api/products",
		"GET /api/products/:id",
		"POST /api/products",
		"PUT /api/products/:id",
		"DELETE /api/products/:id",
		"GET /api/products/:id/reviews",
		"GET /api/products/:id/image",
		"POST /api/products/:id/image",
		"POST /api/reviews",
		"POST /api/orders",
		"GET /api/orders",
		"GET /api/orders/export",
		"GET /api/orders/stream",
		"GET /api/orders/:id",
		"PUT /api/orders/:id/status",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, registered, len(expected))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	cfg := testutil.TestConfig(t)
	router := SetupRouter(cfg)

	for _, path := range []string{"/api/users/me", "/api/cart", "/api/orders", "/api/orders/export"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestCorsPreflight(t *testing.T) {
	cfg := testutil.TestConfig(t)
	router := SetupRouter(cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://shop.lumme.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
