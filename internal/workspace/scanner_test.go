package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haasonsaas/codeagent/internal/ignorefiles"
)

func TestScanBuildsDirsAndFilesSorted(t *testing.T) {
	root := t.TempDir()
	must(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("x"), 0o644))
	must(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	must(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	must(t, os.WriteFile(filepath.Join(root, "sub", "nested.txt"), []byte("x"), 0o644))

	node, used := Scan(root, ScanOptions{MaxItems: 100})
	if used == 0 {
		t.Fatalf("expected at least one item counted")
	}
	if len(node.Files) != 2 || node.Files[0] != "a.txt" || node.Files[1] != "b.txt" {
		t.Fatalf("expected sorted files [a.txt b.txt], got %v", node.Files)
	}
	if len(node.SubFolders) != 1 || node.SubFolders[0].Name != "sub" {
		t.Fatalf("expected one subfolder named sub, got %v", node.SubFolders)
	}
	if len(node.SubFolders[0].Files) != 1 || node.SubFolders[0].Files[0] != "nested.txt" {
		t.Fatalf("expected nested.txt under sub, got %v", node.SubFolders[0].Files)
	}
}

func TestScanRespectsMaxItemsBudget(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		must(t, os.WriteFile(filepath.Join(root, string(rune('a'+i))+".txt"), []byte("x"), 0o644))
	}

	node, used := Scan(root, ScanOptions{MaxItems: 2})
	if used != 2 {
		t.Fatalf("expected exactly 2 items used against the budget, got %d", used)
	}
	if !node.HasMoreFiles {
		t.Fatalf("expected HasMoreFiles once the budget is exhausted")
	}
	if len(node.Files) != 2 {
		t.Fatalf("expected only 2 files emitted, got %v", node.Files)
	}
}

func TestScanMarksIgnoredDirectoriesWithoutDescending(t *testing.T) {
	root := t.TempDir()
	must(t, os.Mkdir(filepath.Join(root, "node_modules"), 0o755))
	must(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg.json"), []byte("x"), 0o644))

	matcher := ignorefiles.Load(root, true, true)
	node, _ := Scan(root, ScanOptions{MaxItems: 100, Matcher: matcher})
	if len(node.SubFolders) != 1 || !node.SubFolders[0].IsIgnored {
		t.Fatalf("expected node_modules marked ignored by the default-excludes matcher")
	}
}

func TestRenderProducesBoxDrawingTree(t *testing.T) {
	root := t.TempDir()
	must(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	must(t, os.Mkdir(filepath.Join(root, "z"), 0o755))

	node, _ := Scan(root, ScanOptions{MaxItems: 100})
	out := Render(node)
	if !strings.Contains(out, "├───a.txt") {
		t.Fatalf("expected non-last entry to use the tee connector, got %q", out)
	}
	if !strings.Contains(out, "└───z/") {
		t.Fatalf("expected last entry to use the corner connector, got %q", out)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
