package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// FetchTool fetches a URL and converts its body to text, markdown, or
// raw HTML, illustrating a registry-compatible tool implementation.
type FetchTool struct {
	client      *http.Client
	maxBodySize int64
}

// NewFetchTool builds a FetchTool capping response bodies at
// maxBodySize bytes (default 5MiB when <= 0).
func NewFetchTool(maxBodySize int64) *FetchTool {
	if maxBodySize <= 0 {
		maxBodySize = 5 * 1024 * 1024
	}
	return &FetchTool{
		client: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxBodySize: maxBodySize,
	}
}

// Schema builds the parameters JSON schema for registering this tool
// (a plain map, for ToolSchema.Parameters), so this package does not
// import the registry's package. name is not used.
func (t *FetchTool) Schema(name string) map[string]any {
	return Object(
		Property("url", String("The URL to fetch content from")).Required(),
		Property("format", Enum("Output format", "text", "markdown", "html")).Required(),
		Property("timeout_seconds", Int("Optional timeout in seconds (max 120, default 30)")),
	)
}

type fetchResponse struct {
	Success   bool   `json:"success"`
	Content   string `json:"content"`
	URL       string `json:"url"`
	Format    string `json:"format"`
	Size      int64  `json:"size"`
	Truncated bool   `json:"truncated"`
	Error     string `json:"error,omitempty"`
}

// Fetch is the invoker body: takes the parsed input map, returns the
// JSON-encoded fetchResponse text plus whether the fetch itself failed
// (IsError), matching the registry's never-throw tool-error contract.
func (t *FetchTool) Fetch(ctx context.Context, input map[string]any) (string, bool) {
	url, _ := input["url"].(string)
	format := strings.ToLower(stringOr(input["format"], "text"))

	if url == "" {
		return encodeFetch(fetchResponse{Error: "url parameter is required"}), true
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return encodeFetch(fetchResponse{Error: "url must start with http:// or https://"}), true
	}
	if format != "text" && format != "markdown" && format != "html" {
		return encodeFetch(fetchResponse{Error: "format must be one of: text, markdown, html"}), true
	}

	timeout := 30 * time.Second
	if secs, ok := input["timeout_seconds"].(float64); ok && secs > 0 {
		timeout = time.Duration(min(secs, 120) * float64(time.Second))
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return encodeFetch(fetchResponse{Error: "failed to create request: " + err.Error()}), true
	}
	httpReq.Header.Set("User-Agent", "agentscope-fetch/1.0")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return encodeFetch(fetchResponse{Error: "failed to fetch url: " + err.Error()}), true
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return encodeFetch(fetchResponse{Error: fmt.Sprintf("request failed with status %d", resp.StatusCode)}), true
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodySize))
	if err != nil {
		return encodeFetch(fetchResponse{Error: "failed to read response body: " + err.Error()}), true
	}
	content := string(body)
	if !utf8.ValidString(content) {
		return encodeFetch(fetchResponse{Error: "response content is not valid UTF-8"}), true
	}

	contentType := resp.Header.Get("Content-Type")
	switch format {
	case "text":
		if strings.Contains(contentType, "text/html") {
			if text, err := extractTextFromHTML(content); err == nil {
				content = text
			}
		}
	case "markdown":
		if strings.Contains(contentType, "text/html") {
			if markdown, err := convertHTMLToMarkdown(content); err == nil {
				content = markdown
			}
		}
	case "html":
		if strings.Contains(contentType, "text/html") {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
			if err == nil {
				if bodyHTML, err := doc.Find("body").Html(); err == nil {
					content = "<html>\n<body>\n" + bodyHTML + "\n</body>\n</html>"
				}
			}
		}
	}

	truncated := false
	size := int64(len(content))
	if size > t.maxBodySize {
		content = content[:t.maxBodySize]
		truncated = true
	}

	return encodeFetch(fetchResponse{
		Success:   true,
		Content:   content,
		URL:       url,
		Format:    format,
		Size:      size,
		Truncated: truncated,
	}), false
}

func encodeFetch(r fetchResponse) string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"internal: failed to encode response"}`
	}
	return string(b)
}

func extractTextFromHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	text := doc.Find("body").Text()
	return strings.Join(strings.Fields(text), " "), nil
}

func convertHTMLToMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	return converter.ConvertString(html)
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}
