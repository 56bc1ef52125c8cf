// Package web implements web_fetch and web_search: fetching a batch of
// URLs with HTML-to-text extraction and GitHub blob rewriting, and a
// pluggable web search backend.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

const (
	maxURLs        = 20
	maxCharsPerURL = 100_000
	fetchTimeout   = 30 * time.Second
)

var githubBlobPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/blob/(.+)$`)

// FetchTool implements web_fetch.
type FetchTool struct {
	Client *http.Client
}

func NewFetchTool() *FetchTool {
	return &FetchTool{Client: &http.Client{Timeout: fetchTimeout}}
}

func (t *FetchTool) Name() string { return "web_fetch" }
func (t *FetchTool) Description() string {
	return "Fetches one or more URLs and returns their text content, stripped of HTML markup."
}

func (t *FetchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"prompt": {"type": "string"}
		},
		"required": ["prompt"]
	}`)
}

type fetchParams struct {
	Prompt string `json:"prompt"`
}

func (t *FetchTool) Invoke(ctx context.Context, raw json.RawMessage) runtime.ToolResult {
	var p fetchParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	if strings.TrimSpace(p.Prompt) == "" {
		return runtime.NewToolError(runtime.ErrInvalidInput, "prompt cannot be empty; include url(s) and instructions").ErrorResult()
	}

	urls, parseErrs := parseURLsFromPrompt(p.Prompt)
	if len(parseErrs) > 0 {
		return runtime.NewToolError(runtime.ErrInvalidURL, strings.Join(parseErrs, "; ")).ErrorResult()
	}
	if len(urls) == 0 {
		return runtime.NewToolError(runtime.ErrNoURLsFound, "no valid urls found in prompt; urls must start with http:// or https://").ErrorResult()
	}
	if len(urls) > maxURLs {
		return runtime.NewToolError(runtime.ErrTooManyURLs, fmt.Sprintf("at most %d urls allowed, got %d", maxURLs, len(urls))).ErrorResult()
	}

	var sb strings.Builder
	results := make([]map[string]any, 0, len(urls))
	for _, raw := range urls {
		u := rewriteGitHubBlob(raw)
		text, err := t.fetchOne(ctx, u)
		fmt.Fprintf(&sb, "--- %s ---\n", raw)
		if err != nil {
			fmt.Fprintf(&sb, "[Error: %s]\n\n", err.Error())
			results = append(results, map[string]any{"url": raw, "error": err.Error()})
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
		results = append(results, map[string]any{"url": raw, "chars": len(text)})
	}

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(sb.String()),
		ReturnDisplay: fmt.Sprintf("Fetched %d URL(s)", len(urls)),
		Data:          map[string]any{"results": results},
	}
}

// parseURLsFromPrompt tokenizes prompt on whitespace and treats any
// token containing "://" as a URL candidate, validating its scheme is
// http/https. Tokens with an unsupported or malformed scheme are
// collected as errors rather than silently dropped.
func parseURLsFromPrompt(prompt string) (urls []string, errs []string) {
	for _, token := range strings.Fields(prompt) {
		if !strings.Contains(token, "://") {
			continue
		}
		parsed, err := url.Parse(token)
		if err != nil {
			errs = append(errs, fmt.Sprintf("malformed URL: %s", token))
			continue
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("unsupported protocol: %s", token))
			continue
		}
		urls = append(urls, token)
	}
	return urls, errs
}

func (t *FetchTool) fetchOne(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCharsPerURL*4))
	if err != nil {
		return "", err
	}

	text := body
	contentType := resp.Header.Get("Content-Type")
	var stripped string
	if strings.Contains(contentType, "html") {
		stripped = stripHTML(string(text))
	} else {
		stripped = string(text)
	}
	if len(stripped) > maxCharsPerURL {
		stripped = stripped[:maxCharsPerURL] + "\n[... truncated ...]"
	}
	return stripped, nil
}

// rewriteGitHubBlob turns a GitHub blob UI URL into its raw-content
// counterpart so fetches return source text, not the HTML page chrome.
func rewriteGitHubBlob(rawURL string) string {
	m := githubBlobPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return rawURL
	}
	owner, repo, rest := m[1], m[2], m[3]
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s", owner, repo, rest)
}

var (
	scriptStylePattern = regexp.MustCompile(`(?is)<(script|style|nav|footer|header)[^>]*>.*?</(script|style|nav|footer|header)>`)
	tagPattern         = regexp.MustCompile(`(?s)<[^>]+>`)
	whitespacePattern  = regexp.MustCompile(`[ \t]+`)
	blankLinesPattern  = regexp.MustCompile(`\n{3,}`)
)

// stripHTML removes script/style/nav/footer/header blocks and tags,
// collapsing runs of whitespace left behind, to produce plain readable
// text.
func stripHTML(html string) string {
	s := scriptStylePattern.ReplaceAllString(html, "")
	s = tagPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = blankLinesPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
