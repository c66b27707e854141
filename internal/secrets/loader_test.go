package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  s3cr3t\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	got, err := Load(Source{Name: "gemini api key", File: path, Env: "UNUSED_KEY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s3cr3t" {
		t.Fatalf("expected trimmed secret, got %q", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROSTER_MATCHER_TEST_KEY", " from-env ")

	got, err := Load(Source{Env: "ROSTER_MATCHER_TEST_KEY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("expected env secret, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	tests := []struct {
		name   string
		src    Source
		expect string
	}{
		{name: "nothing configured", src: Source{Name: "token"}, expect: "token is not configured"},
		{name: "empty file", src: Source{Name: "token", File: empty}, expect: "is empty"},
		{name: "missing file", src: Source{File: filepath.Join(t.TempDir(), "absent")}, expect: "reading secret"},
		{name: "unset env", src: Source{Env: "ROSTER_MATCHER_UNSET_KEY"}, expect: "ROSTER_MATCHER_UNSET_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.expect) {
				t.Fatalf("expected error containing %q, got %v", tt.expect, err)
			}
		})
	}
}
