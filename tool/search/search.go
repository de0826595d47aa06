// Package search provides a web search tool backed by the DuckDuckGo HTML
// endpoint. Results are extracted from the returned markup, so no API key is
// required.
package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/hupe1980/reactmesh/core"
	"github.com/hupe1980/reactmesh/tool"
)

const (
	// DefaultBaseURL is the DuckDuckGo HTML search endpoint.
	DefaultBaseURL    = "https://html.duckduckgo.com/html/"
	defaultMaxResults = 8
	defaultUserAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

const description = "A search engine to query information from internet. " +
	"Input is any text search query. Output are urls and their titles."

// Options configures the search tool.
type Options struct {
	BaseURL    string
	MaxResults int
	UserAgent  string
	HTTPClient *http.Client
}

// Tool searches the web and returns result titles and URLs.
type Tool struct {
	opts Options
}

// New creates a search tool.
func New(optFns ...func(o *Options)) *Tool {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		MaxResults: defaultMaxResults,
		UserAgent:  defaultUserAgent,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Tool{opts: opts}
}

// Result is a single search hit.
type Result struct {
	Title string
	URL   string
}

var _ tool.Tool = (*Tool)(nil)

// Name implements tool.Tool.
func (t *Tool) Name() string { return "search" }

// DisplayName implements tool.Tool.
func (t *Tool) DisplayName() string { return "Search" }

// Description implements tool.Tool.
func (t *Tool) Description() string { return description }

// Execute implements tool.Tool.
func (t *Tool) Execute(ctx context.Context, query string) (core.ExecutionResult, error) {
	results, err := t.Search(ctx, query)
	if err != nil {
		return core.ExecutionResult{}, err
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("%s\n%s\n", r.Title, r.URL))
	}

	return core.ExecutionResult{
		ResultForHuman: fmt.Sprintf("%d results", len(results)),
		ResultForModel: strings.Join(blocks, "\n"),
	}, nil
}

// Search queries the endpoint and parses the result links.
func (t *Tool) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, tool.NewToolError(t.Name(), "empty query", "INVALID_INPUT")
	}

	reqURL := t.opts.BaseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", t.opts.UserAgent)

	resp, err := t.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return extractResults(doc, t.opts.MaxResults), nil
}

// extractResults collects anchors carrying the result__a class.
func extractResults(doc *html.Node, limit int) []Result {
	var results []Result

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if limit > 0 && len(results) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			if href := resolveHref(attr(n, "href")); href != "" {
				results = append(results, Result{Title: strings.TrimSpace(textOf(n)), URL: href})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results
}

// resolveHref unwraps DuckDuckGo redirect links carrying the target in uddg.
func resolveHref(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
