package fileops

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newGlobToolForTest(t *testing.T) (*GlobTool, string) {
	t.Helper()
	root := t.TempDir()
	r, err := NewResolver(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewGlobTool(r), root
}

func TestGlobMatchesSimplePattern(t *testing.T) {
	tool, root := newGlobToolForTest(t)
	if err := os.WriteFile(filepath.Join(root, "a.go"), []byte("x"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params, _ := json.Marshal(map[string]any{"pattern": "*.go"})
	result := tool.Invoke(nil, params)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if result.Data["count"] != 1 {
		t.Fatalf("expected 1 match, got %v", result.Data["count"])
	}
	if !strings.HasSuffix(result.LLMContent.Text, "a.go") {
		t.Fatalf("unexpected match: %q", result.LLMContent.Text)
	}
}

func TestGlobRecursiveDoubleStarCrossesDirectories(t *testing.T) {
	tool, root := newGlobToolForTest(t)
	nested := filepath.Join(root, "pkg", "sub")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "deep.go"), []byte("x"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params, _ := json.Marshal(map[string]any{"pattern": "**/*.go"})
	result := tool.Invoke(nil, params)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if result.Data["count"] != 1 {
		t.Fatalf("expected 1 recursive match, got %v", result.Data["count"])
	}
}

func TestGlobCaseInsensitiveOption(t *testing.T) {
	tool, root := newGlobToolForTest(t)
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params, _ := json.Marshal(map[string]any{"pattern": "readme.md", "case_sensitive": false})
	result := tool.Invoke(nil, params)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if result.Data["count"] != 1 {
		t.Fatalf("expected case-insensitive match, got %v", result.Data["count"])
	}
}

func TestGlobExcludesDefaultIgnoredDirectories(t *testing.T) {
	tool, root := newGlobToolForTest(t)
	nm := filepath.Join(root, "node_modules")
	if err := os.MkdirAll(nm, 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nm, "a.go"), []byte("x"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params, _ := json.Marshal(map[string]any{"pattern": "**/*.go"})
	result := tool.Invoke(nil, params)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if result.Data["count"] != 0 {
		t.Fatalf("expected node_modules to be excluded by default, got %v matches", result.Data["count"])
	}
}

func TestGlobRejectsEmptyPattern(t *testing.T) {
	tool, _ := newGlobToolForTest(t)
	params, _ := json.Marshal(map[string]any{"pattern": ""})
	result := tool.Invoke(nil, params)
	if result.Error == nil {
		t.Fatalf("expected empty pattern to be rejected")
	}
}
