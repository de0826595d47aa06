package browse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/reactmesh/tool"
)

const article = `<!doctype html>
<html><head><title> Gophers  Weekly </title><style>body{color:red}</style></head>
<body>
<nav>Home | About</nav>
<main>
  <h1>Release notes</h1>
  <p>Go 1.25 ships with   many improvements.</p>
  <script>var tracking = 1;</script>
  <p>Read the <a href="/notes">full notes</a>.</p>
</main>
<footer>Copyright</footer>
</body></html>`

func newServer(t *testing.T, contentType, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExecute_ExtractsReadableText(t *testing.T) {
	srv := newServer(t, "text/html; charset=utf-8", article, nil)

	res, err := New().Execute(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Gophers Weekly", res.ResultForHuman)
	assert.Equal(t, "Release notes\nGo 1.25 ships with many improvements.\nRead the full notes .", res.ResultForModel)
	assert.NotContains(t, res.ResultForModel, "tracking")
	assert.NotContains(t, res.ResultForModel, "Copyright")
}

func TestExecute_Placeholders(t *testing.T) {
	srv := newServer(t, "text/html", "<html><body></body></html>", nil)

	res, err := New().Execute(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "(no title)", res.ResultForHuman)
	assert.Equal(t, "(no content)", res.ResultForModel)
}

func TestExecute_Truncates(t *testing.T) {
	srv := newServer(t, "text/html", "<p>"+strings.Repeat("a", 5000)+"</p>", nil)

	res, err := New().Execute(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, res.ResultForModel, 3000)
}

func TestExecute_PlainText(t *testing.T) {
	srv := newServer(t, "text/plain", "  just text  ", nil)

	res, err := New().Execute(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "just text", res.ResultForModel)
}

func TestExecute_CachesPages(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, "text/html", article, &hits)
	bt := New()

	for i := 0; i < 3; i++ {
		_, err := bt.Execute(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())

	uncached := New(func(o *Options) { o.CacheSize = 0 })
	_, err := uncached.Execute(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestExecute_ConcurrentCallsShareFetch(t *testing.T) {
	var hits atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			close(started)
			<-release
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(article))
	}))
	t.Cleanup(srv.Close)

	bt := New()
	results := make([]string, 4)

	var wg sync.WaitGroup
	call := func(i int) {
		defer wg.Done()
		res, err := bt.Execute(context.Background(), srv.URL)
		assert.NoError(t, err)
		results[i] = res.ResultForHuman
	}

	wg.Add(1)
	go call(0)
	<-started

	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go call(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, title := range results {
		assert.Equal(t, "Gophers Weekly", title)
	}
}

func TestExecute_RejectsInvalidURLs(t *testing.T) {
	for _, input := range []string{"ftp://example.com", "not a url", "file:///etc/passwd", "https://"} {
		_, err := New().Execute(context.Background(), input)
		require.Error(t, err, input)

		var toolErr *tool.ToolError
		assert.ErrorAs(t, err, &toolErr, input)
	}
}
