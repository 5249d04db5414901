package testutil

import (
	"os"
	"testing"
)

// TestEnv is the GO_ENV value every test process runs under
const TestEnv = "test"

// MustSetTestEnvironment switches GO_ENV to test for the rest of t and
// clears DATABASE_URL so nothing can reach a real database
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	t.Setenv("GO_ENV", TestEnv)
	t.Setenv("DATABASE_URL", "")
}

// RequireTestEnvironment fails t unless GO_ENV is test
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != TestEnv {
		t.Fatalf("refusing to run outside the test environment (GO_ENV=%q)", env)
	}
}
