package fileops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

// ReplaceTool is the three-strategy edit engine. Strategy order is
// exact, then whitespace-flexible, then regex-flexible; the
// regex-flexible strategy applies at most once and only when the first
// two strategies found zero matches.
type ReplaceTool struct {
	Resolver *Resolver
}

func NewReplaceTool(r *Resolver) *ReplaceTool { return &ReplaceTool{Resolver: r} }

func (t *ReplaceTool) Name() string        { return "replace" }
func (t *ReplaceTool) Description() string { return "Replaces text in a file using exact, whitespace-flexible, or regex-flexible matching, in that order." }

func (t *ReplaceTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string"},
			"old_string": {"type": "string"},
			"new_string": {"type": "string"},
			"expected_replacements": {"type": "integer", "description": "Defaults to 1"}
		},
		"required": ["file_path", "old_string", "new_string"]
	}`)
}

type replaceParams struct {
	FilePath             string `json:"file_path"`
	OldString            string `json:"old_string"`
	NewString            string `json:"new_string"`
	ExpectedReplacements *int   `json:"expected_replacements,omitempty"`
}

func (t *ReplaceTool) Invoke(_ context.Context, raw json.RawMessage) runtime.ToolResult {
	var p replaceParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	if p.FilePath == "" {
		return runtime.NewToolError(runtime.ErrInvalidParameter, "file_path is required").ErrorResult()
	}
	if p.OldString == p.NewString {
		return runtime.NewToolError(runtime.ErrEditNoChange, "old_string and new_string are identical").ErrorResult()
	}

	expected := 1
	if p.ExpectedReplacements != nil {
		expected = *p.ExpectedReplacements
	}

	abs, err := t.Resolver.Resolve(p.FilePath)
	if err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}

	info, statErr := os.Stat(abs)
	exists := statErr == nil

	if p.OldString == "" {
		if exists {
			return runtime.NewToolError(runtime.ErrAttemptCreateExistingFile,
				fmt.Sprintf("%s already exists", p.FilePath)).ErrorResult()
		}
		if err := os.WriteFile(abs, []byte(p.NewString), 0o644); err != nil {
			return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
		}
		return runtime.ToolResult{
			LLMContent:    runtime.TextContent(fmt.Sprintf("Created %s", p.FilePath)),
			ReturnDisplay: fmt.Sprintf("create: %s", p.FilePath),
			Data:          map[string]any{"operation": "create"},
		}
	}

	if !exists {
		return runtime.NewToolError(runtime.ErrFileNotFound, fmt.Sprintf("file not found: %s", p.FilePath)).ErrorResult()
	}
	if info.IsDir() {
		return runtime.NewToolError(runtime.ErrPathIsDirectory, fmt.Sprintf("%s is a directory", p.FilePath)).ErrorResult()
	}

	original, err := os.ReadFile(abs)
	if err != nil {
		return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
	}
	crlf := dominantLineEndingIsCRLF(string(original))
	normalized := strings.ReplaceAll(string(original), "\r\n", "\n")

	updated, count, strategy := applyStrategies(normalized, p.OldString, p.NewString)
	if count == 0 {
		return runtime.NewToolError(runtime.ErrEditNoOccurrenceFound,
			fmt.Sprintf("no occurrence of old_string found in %s", p.FilePath)).ErrorResult()
	}
	if count != expected {
		return runtime.NewToolError(runtime.ErrEditOccurrenceMismatch,
			fmt.Sprintf("expected %d replacements, found %d using %s strategy", expected, count, strategy)).ErrorResult()
	}

	final := updated
	if crlf {
		final = toCRLF(updated)
	}
	if err := os.WriteFile(abs, []byte(final), 0o644); err != nil {
		return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
	}

	diff := unifiedDiff(p.FilePath, string(original), final)
	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(fmt.Sprintf("Replaced %d occurrence(s) in %s using the %s strategy", count, p.FilePath, strategy)),
		ReturnDisplay: diff,
		Data:          map[string]any{"occurrences": count, "strategy": strategy},
	}
}

// applyStrategies tries exact, then whitespace-flexible, then
// regex-flexible matching, returning the transformed content, the
// occurrence count found by the first strategy that matched at least
// once, and the strategy's name.
func applyStrategies(content, old, new string) (string, int, string) {
	if result, count := exactReplace(content, old, new); count > 0 {
		return result, count, "exact"
	}
	if result, count := whitespaceFlexibleReplace(content, old, new); count > 0 {
		return result, count, "whitespace-flexible"
	}
	if result, count := regexFlexibleReplace(content, old, new); count > 0 {
		return result, count, "regex-flexible"
	}
	return content, 0, "none"
}

func exactReplace(content, old, new string) (string, int) {
	count := strings.Count(content, old)
	if count == 0 {
		return content, 0
	}
	return strings.ReplaceAll(content, old, new), count
}

// whitespaceFlexibleReplace slides a same-length window of lines over the
// source, comparing each line's trimmed content against the
// corresponding trimmed line of old_string. On a match, the window is
// replaced by new_string re-indented to the leading whitespace of the
// window's first source line.
func whitespaceFlexibleReplace(content, old, new string) (string, int) {
	srcLines := strings.Split(content, "\n")
	oldLines := stripLines(strings.Split(old, "\n"))
	newLines := strings.Split(new, "\n")

	if len(oldLines) == 0 || len(oldLines) > len(srcLines) {
		return content, 0
	}

	var out []string
	count := 0
	i := 0
	for i < len(srcLines) {
		if i+len(oldLines) <= len(srcLines) && windowMatches(srcLines[i:i+len(oldLines)], oldLines) {
			indent := leadingWhitespace(srcLines[i])
			for _, l := range newLines {
				out = append(out, indent+l)
			}
			count++
			i += len(oldLines)
			continue
		}
		out = append(out, srcLines[i])
		i++
	}
	if count == 0 {
		return content, 0
	}
	return strings.Join(out, "\n"), count
}

func stripLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

func windowMatches(window, strippedOld []string) bool {
	for i, l := range window {
		if strings.TrimSpace(l) != strippedOld[i] {
			return false
		}
	}
	return true
}

func leadingWhitespace(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

// punctuationDelimiters is the fixed delimiter set used to tokenize
// old_string for regex-flexible matching.
const punctuationDelimiters = `(){}[]<>,;:=+-*/!&|^%~'".`

// delimiterClass is punctuationDelimiters escaped for use inside a
// character class; QuoteMeta leaves '-' alone, so it is escaped here.
var delimiterClass = strings.ReplaceAll(regexp.QuoteMeta(punctuationDelimiters), "-", `\-`)

var tokenPattern = regexp.MustCompile(`[` + delimiterClass + `]|[^\s` + delimiterClass + `]+`)

// regexFlexibleReplace tokenizes old_string on whitespace and the fixed
// punctuation delimiter set, builds a regex that accepts arbitrary
// whitespace between tokens and captures the leading indent of the
// match, and performs at most one anchored replacement. $ in new_string
// is always literal: it is never treated as a regex backreference.
func regexFlexibleReplace(content, old, new string) (string, int) {
	tokens := tokenPattern.FindAllString(old, -1)
	if len(tokens) == 0 {
		return content, 0
	}
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = regexp.QuoteMeta(tok)
	}
	pattern := `(?m)^([ \t]*)` + strings.Join(parts, `\s*`)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return content, 0
	}

	loc := re.FindStringSubmatchIndex(content)
	if loc == nil {
		return content, 0
	}
	indent := content[loc[2]:loc[3]]
	newLines := strings.Split(new, "\n")
	for i, l := range newLines {
		newLines[i] = indent + l
	}
	replacement := strings.Join(newLines, "\n")

	result := content[:loc[0]] + replacement + content[loc[1]:]
	return result, 1
}

// unifiedDiff produces a compact before/after summary for display. It is
// not a full unified-diff algorithm; it reports the before and after line
// counts only, which
// is sufficient for the ReturnDisplay surface (human/UI only, never
// re-enters the model's context).
func unifiedDiff(path, before, after string) string {
	beforeLines := strings.Count(before, "\n") + 1
	afterLines := strings.Count(after, "\n") + 1
	return fmt.Sprintf("--- %s (%d lines)\n+++ %s (%d lines)", path, beforeLines, path, afterLines)
}
