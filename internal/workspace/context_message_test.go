package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuildEnvContextMessageIncludesExpectedSections(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := BuildEnvContextMessage(EnvContextOptions{
		AgentName: "codeagent",
		WorkDir:   root,
		TmpDir:    "/tmp/codeagent",
		MaxItems:  50,
		Now:       time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
	})

	for _, want := range []string{
		"This is the codeagent.",
		"Today's date is July 31, 2026.",
		"My operating system is:",
		"The project's temporary directory is: /tmp/codeagent.",
		"I'm currently working in the directory: " + root,
		"Showing up to 50 items",
		"main.go",
		"Reminder: Do not return an empty response when a tool call is required.",
		"My setup is complete. I will provide my first command in the next turn.",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected message to contain %q, got:\n%s", want, msg)
		}
	}
}

func TestBuildEnvContextMessageRespectsMaxItemsInTree(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		name := string(rune('a'+i)) + ".txt"
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	msg := BuildEnvContextMessage(EnvContextOptions{
		AgentName: "codeagent",
		WorkDir:   root,
		TmpDir:    "/tmp",
		MaxItems:  2,
		Now:       time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
	})
	if !strings.Contains(msg, "...") {
		t.Fatalf("expected truncation marker when the tree exceeds MaxItems, got:\n%s", msg)
	}
}
