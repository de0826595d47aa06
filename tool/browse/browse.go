// Package browse provides a tool that fetches a web page and returns its
// readable text. Pages are cached for a short time so repeated actions on the
// same URL within a conversation do not hit the network again, and concurrent
// requests for one URL share a single fetch.
package browse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/reactmesh/core"
	"github.com/hupe1980/reactmesh/tool"
)

const (
	defaultMaxChars  = 3000
	defaultMaxBytes  = 2 << 20
	defaultCacheSize = 64
	defaultCacheTTL  = 15 * time.Minute
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	noContent = "(no content)"
	noTitle   = "(no title)"
)

// Options configures the browse tool.
type Options struct {
	// MaxChars caps the text handed to the model.
	MaxChars int
	// MaxBytes caps how much of the response body is read.
	MaxBytes int64
	// CacheSize is the number of pages kept. Zero disables caching.
	CacheSize int
	CacheTTL  time.Duration
	UserAgent string

	HTTPClient *http.Client
}

// Tool fetches pages over http and https.
type Tool struct {
	opts  Options
	cache *expirable.LRU[string, core.ExecutionResult]
	group singleflight.Group
}

// New creates a browse tool.
func New(optFns ...func(o *Options)) *Tool {
	opts := Options{
		MaxChars:   defaultMaxChars,
		MaxBytes:   defaultMaxBytes,
		CacheSize:  defaultCacheSize,
		CacheTTL:   defaultCacheTTL,
		UserAgent:  defaultUserAgent,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	t := &Tool{opts: opts}
	if opts.CacheSize > 0 {
		t.cache = expirable.NewLRU[string, core.ExecutionResult](opts.CacheSize, nil, opts.CacheTTL)
	}

	return t
}

var _ tool.Tool = (*Tool)(nil)

// Name implements tool.Tool.
func (t *Tool) Name() string { return "browse" }

// DisplayName implements tool.Tool.
func (t *Tool) DisplayName() string { return "Browse" }

// Description implements tool.Tool.
func (t *Tool) Description() string {
	return "Read content of URL from Internet. Input is a single http or https URL."
}

// Execute implements tool.Tool. The model receives the page text, the human
// the page title.
func (t *Tool) Execute(ctx context.Context, input string) (core.ExecutionResult, error) {
	target, err := parseURL(input)
	if err != nil {
		return core.ExecutionResult{}, err
	}

	key := target.String()
	if t.cache != nil {
		if res, ok := t.cache.Get(key); ok {
			return res, nil
		}
	}

	v, err, _ := t.group.Do(key, func() (any, error) {
		return t.load(ctx, key)
	})
	if err != nil {
		return core.ExecutionResult{}, err
	}

	return v.(core.ExecutionResult), nil
}

// load fetches target and stores the result in the cache.
func (t *Tool) load(ctx context.Context, target string) (core.ExecutionResult, error) {
	page, err := t.fetch(ctx, target)
	if err != nil {
		return core.ExecutionResult{}, err
	}

	res := core.ExecutionResult{
		ResultForHuman: noTitle,
		ResultForModel: noContent,
	}
	if page.title != "" {
		res.ResultForHuman = page.title
	}
	if page.text != "" {
		res.ResultForModel = truncate(page.text, t.opts.MaxChars)
	}

	if t.cache != nil {
		t.cache.Add(target, res)
	}

	return res, nil
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, tool.NewToolError("browse", fmt.Sprintf("invalid URL %q: %v", raw, err), "INVALID_INPUT")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, tool.NewToolError("browse", fmt.Sprintf("invalid URL %q: only http and https are supported", raw), "INVALID_INPUT")
	}
	if u.Host == "" {
		return nil, tool.NewToolError("browse", fmt.Sprintf("invalid URL %q: missing host", raw), "INVALID_INPUT")
	}
	return u, nil
}

type page struct {
	title string
	text  string
}

func (t *Tool) fetch(ctx context.Context, target string) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", t.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	resp, err := t.opts.HTTPClient.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page{}, fmt.Errorf("fetch %s: status %d", target, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, t.opts.MaxBytes)

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		raw, err := io.ReadAll(body)
		if err != nil {
			return page{}, fmt.Errorf("read response: %w", err)
		}
		return page{text: strings.TrimSpace(string(raw))}, nil
	}

	doc, err := html.Parse(body)
	if err != nil {
		return page{}, fmt.Errorf("parse response: %w", err)
	}

	return extract(doc), nil
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
