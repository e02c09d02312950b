package sources

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefault(t *testing.T) {
	catalog, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(catalog) == 0 {
		t.Fatalf("expected a non-empty default catalog")
	}

	for _, s := range catalog {
		if s.Name == "" || s.URL == "" || s.Category == "" {
			t.Fatalf("incomplete source in default catalog: %+v", s)
		}
	}
}

func TestLoadOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - name: Example
    url: https://example.com/feed.xml
    category: ai
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write override file: %v", err)
	}

	catalog, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(catalog) != 1 || catalog[0].Name != "Example" {
		t.Fatalf("unexpected catalog: %+v", catalog)
	}
}

func TestLoadRejectsIncompleteSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - name: Missing URL
    category: ai
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write override file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a source without a URL")
	}
}
