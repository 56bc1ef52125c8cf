package workspace

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/haasonsaas/codeagent/internal/ignorefiles"
)

// EnvContextOptions parameterizes BuildEnvContextMessage.
type EnvContextOptions struct {
	AgentName string
	WorkDir   string
	TmpDir    string
	MaxItems  int
	Now       time.Time
}

// BuildEnvContextMessage renders the one-shot environment-context
// injection message sent as the first system message of a run.
func BuildEnvContextMessage(opts EnvContextOptions) string {
	matcher := ignorefiles.Load(opts.WorkDir, true, true)
	tree, _ := Scan(opts.WorkDir, ScanOptions{MaxItems: opts.MaxItems, Matcher: matcher})

	var sb strings.Builder
	fmt.Fprintf(&sb, "This is the %s. We are setting up the context for our chat.\n", opts.AgentName)
	fmt.Fprintf(&sb, "Today's date is %s.\n", opts.Now.Format("January 2, 2006"))
	fmt.Fprintf(&sb, "My operating system is: %s.\n", strings.ToLower(runtime.GOOS))
	fmt.Fprintf(&sb, "The project's temporary directory is: %s.\n", opts.TmpDir)
	fmt.Fprintf(&sb, "I'm currently working in the directory: %s.\n", opts.WorkDir)
	sb.WriteString("Here is the folder structure of the current working directories:\n\n")
	fmt.Fprintf(&sb, "Showing up to %d items (files + folders).\n\n", opts.MaxItems)
	sb.WriteString(Render(tree))
	sb.WriteString("\n")
	sb.WriteString("Reminder: Do not return an empty response when a tool call is required.\n")
	sb.WriteString("My setup is complete. I will provide my first command in the next turn.\n")
	return sb.String()
}
