package fileops

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

const (
	maxReadFileBytes = 10 * 1024 * 1024
	defaultReadLimit = 2000
)

var inlineMimeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".pdf":  "application/pdf",
}

// ReadTool reads a file, returning numbered lines or inline media.
type ReadTool struct {
	Resolver *Resolver
}

func NewReadTool(r *Resolver) *ReadTool { return &ReadTool{Resolver: r} }

func (t *ReadTool) Name() string        { return "read_file" }
func (t *ReadTool) Description() string { return "Reads a file from the local filesystem, returning numbered lines or inline binary data for images/audio/PDF." }

func (t *ReadTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Absolute path to the file to read"},
			"offset": {"type": "integer", "description": "0-based line index to start from"},
			"limit": {"type": "integer", "description": "Maximum number of lines to read"}
		},
		"required": ["file_path"]
	}`)
}

type readFileParams struct {
	FilePath string `json:"file_path"`
	Offset   *int   `json:"offset,omitempty"`
	Limit    *int   `json:"limit,omitempty"`
}

func (t *ReadTool) Invoke(_ context.Context, raw json.RawMessage) runtime.ToolResult {
	var p readFileParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	if p.FilePath == "" {
		return runtime.NewToolError(runtime.ErrInvalidParameter, "file_path is required").ErrorResult()
	}

	abs, err := t.Resolver.Resolve(p.FilePath)
	if err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return runtime.NewToolError(runtime.ErrFileNotFound, fmt.Sprintf("file not found: %s", p.FilePath)).ErrorResult()
	}
	if err != nil {
		return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
	}
	if info.IsDir() {
		return runtime.NewToolError(runtime.ErrPathIsDirectory, fmt.Sprintf("%s is a directory", p.FilePath)).ErrorResult()
	}
	if info.Size() > maxReadFileBytes {
		return runtime.NewToolError(runtime.ErrFileTooLarge, fmt.Sprintf("%s exceeds the 10 MiB read limit", p.FilePath)).ErrorResult()
	}

	ext := strings.ToLower(filepath.Ext(abs))
	if mime, ok := inlineMimeByExt[ext]; ok {
		data, err := os.ReadFile(abs)
		if err != nil {
			return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
		}
		b64 := base64.StdEncoding.EncodeToString(data)
		return runtime.ToolResult{
			LLMContent:    runtime.InlineDataContent(mime, []byte(b64)),
			ReturnDisplay: fmt.Sprintf("Read %d bytes of %s as inline data", len(data), mime),
		}
	}

	raw2, err := os.ReadFile(abs)
	if err != nil {
		return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
	}
	text := decodeText(raw2)

	offset := 0
	if p.Offset != nil {
		offset = *p.Offset
	}
	limit := defaultReadLimit
	if p.Limit != nil && *p.Limit > 0 {
		limit = *p.Limit
	}

	lines := splitLinesKeepEmpty(text)
	total := len(lines)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	var sb strings.Builder
	width := len(fmt.Sprintf("%d", total))
	for i := offset; i < end; i++ {
		fmt.Fprintf(&sb, "%*d\t%s\n", width, i+1, lines[i])
	}

	partial := end < total
	if partial {
		sb.WriteString(fmt.Sprintf("\n[... file truncated, showing lines %d-%d of %d, next_offset=%d ...]\n", offset+1, end, total, end))
	}

	data := map[string]any{}
	if partial {
		data["next_offset"] = end
	}

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(sb.String()),
		ReturnDisplay: fmt.Sprintf("Read lines %d-%d of %d from %s", offset+1, end, total, p.FilePath),
		Data:          data,
	}
}

// decodeText applies a best-effort encoding heuristic: valid UTF-8 is
// used as-is; otherwise each byte is treated as a latin-1 code point.
func decodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

func splitLinesKeepEmpty(s string) []string {
	if s == "" {
		return nil
	}
	scanner := bufio.NewScanner(strings.NewReader(s))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	// bufio.Scanner drops a final empty line after a trailing newline;
	// that matches read-file's line semantics (no phantom trailing line).
	return lines
}
