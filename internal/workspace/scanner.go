// Package workspace builds the folder-structure scan and the one-shot
// environment-context injection message sent to the model at the start
// of a run.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/haasonsaas/codeagent/internal/ignorefiles"
)

// Node is one directory in the scanned tree.
type Node struct {
	Name            string
	Files           []string
	SubFolders      []*Node
	HasMoreFiles    bool
	HasMoreSubdirs  bool
	IsIgnored       bool
}

// ScanOptions bound a Scan call.
type ScanOptions struct {
	MaxItems int
	Matcher  *ignorefiles.Matcher
}

// queueEntry is one item of the scanner's FIFO queue.
type queueEntry struct {
	node *Node
	path string
}

// Scan performs a bounded BFS from root, returning the tree and the
// total number of file+folder nodes emitted.
func Scan(root string, opts ScanOptions) (*Node, int) {
	budget := opts.MaxItems
	if budget <= 0 {
		budget = 1000
	}
	used := 0

	rootNode := &Node{Name: filepath.Base(root)}
	queue := []queueEntry{{node: rootNode, path: root}}

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(entry.path)
		if err != nil {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		var files []os.DirEntry
		var dirs []os.DirEntry
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, e)
			} else {
				files = append(files, e)
			}
		}

		for _, f := range files {
			if used >= budget {
				entry.node.HasMoreFiles = true
				break
			}
			entry.node.Files = append(entry.node.Files, f.Name())
			used++
		}

		for _, d := range dirs {
			if used >= budget {
				entry.node.HasMoreSubdirs = true
				break
			}
			childPath := filepath.Join(entry.path, d.Name())
			child := &Node{Name: d.Name()}
			entry.node.SubFolders = append(entry.node.SubFolders, child)
			used++

			if opts.Matcher != nil && opts.Matcher.MatchesName(d.Name()) {
				child.IsIgnored = true
				continue
			}
			queue = append(queue, queueEntry{node: child, path: childPath})
		}
	}

	return rootNode, used
}

// Render produces a box-drawing tree diagram of node using the
// "├───"/"└───"/"│   " connector set.
func Render(node *Node) string {
	var sb strings.Builder
	sb.WriteString(node.Name + "/\n")
	renderChildren(&sb, node, "")
	return sb.String()
}

func renderChildren(sb *strings.Builder, node *Node, prefix string) {
	type entry struct {
		name      string
		isDir     bool
		child     *Node
	}
	var entries []entry
	for _, f := range node.Files {
		entries = append(entries, entry{name: f})
	}
	for _, d := range node.SubFolders {
		entries = append(entries, entry{name: d.Name, isDir: true, child: d})
	}

	for i, e := range entries {
		last := i == len(entries)-1
		connector := "├───"
		nextPrefix := prefix + "│   "
		if last {
			connector = "└───"
			nextPrefix = prefix + "    "
		}
		label := e.name
		if e.isDir {
			label += "/"
			if e.child.IsIgnored {
				label += " ..."
			}
		}
		fmt.Fprintf(sb, "%s%s%s\n", prefix, connector, label)
		if e.isDir && !e.child.IsIgnored {
			renderChildren(sb, e.child, nextPrefix)
		}
	}

	if node.HasMoreFiles || node.HasMoreSubdirs {
		fmt.Fprintf(sb, "%s...\n", prefix)
	}
}
