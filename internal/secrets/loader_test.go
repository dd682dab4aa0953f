package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PRODANSWER_TEST_SECRET", " env-secret ")

	got, err := Load(Source{Env: "PRODANSWER_TEST_SECRET", Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "env-secret" {
		t.Fatalf("expected env-secret, got %q", got)
	}

	got, err = Load(Source{Env: "PRODANSWER_TEST_SECRET_UNSET", Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inline" {
		t.Fatalf("expected inline fallback, got %q", got)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	if err := os.WriteFile(tokenFile, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("writing empty file: %v", err)
	}

	tests := []struct {
		name    string
		src     Source
		expect  string
		errPart string
	}{
		{name: "file takes precedence", src: Source{Name: "api token", Value: "inline", File: tokenFile}, expect: "from-file"},
		{name: "inline value", src: Source{Value: " inline "}, expect: "inline"},
		{name: "empty file", src: Source{Name: "api token", File: emptyFile}, errPart: "is empty"},
		{name: "missing file", src: Source{Name: "api token", File: filepath.Join(dir, "nope")}, errPart: "reading api token"},
		{name: "not configured", src: Source{}, errPart: "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Load(tt.src)
			if tt.errPart != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errPart) {
					t.Fatalf("expected error containing %q, got %v", tt.errPart, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
