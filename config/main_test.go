package config

import (
	"fmt"
	"os"
	"testing"
)

// TestMain pins GO_ENV to test for the package. A shell that exported
// another environment is refused so Load never reads production settings.
func TestMain(m *testing.M) {
	switch env := os.Getenv("GO_ENV"); env {
	case "", "test":
		_ = os.Setenv("GO_ENV", "test")
	default:
		fmt.Fprintf(os.Stderr, "config tests refuse to run with GO_ENV=%q; use GO_ENV=test\n", env)
		os.Exit(1)
	}

	os.Exit(m.Run())
}
