package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&amp;rut=abc">The <b>Go</b> Programming Language</a>
  <a class="result__snippet" href="#">Build simple, secure, scalable systems.</a>
</div>
<div class="result">
  <a class="result__a" href="https://pkg.go.dev/">Go Packages</a>
</div>
</body></html>`

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExecute(t *testing.T) {
	srv := newServer(t, http.StatusOK, resultsPage)
	st := New(func(o *Options) { o.BaseURL = srv.URL })

	res, err := st.Execute(context.Background(), "golang")
	require.NoError(t, err)

	assert.Equal(t, "2 results", res.ResultForHuman)
	assert.Equal(t, "The Go Programming Language\nhttps://go.dev/\n\nGo Packages\nhttps://pkg.go.dev/\n", res.ResultForModel)
}

func TestExecute_MaxResults(t *testing.T) {
	srv := newServer(t, http.StatusOK, resultsPage)
	st := New(func(o *Options) {
		o.BaseURL = srv.URL
		o.MaxResults = 1
	})

	results, err := st.Search(context.Background(), "golang")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://go.dev/", results[0].URL)
}

func TestExecute_BadStatus(t *testing.T) {
	srv := newServer(t, http.StatusServiceUnavailable, "")
	st := New(func(o *Options) { o.BaseURL = srv.URL })

	_, err := st.Execute(context.Background(), "golang")
	assert.ErrorContains(t, err, "503")
}

func TestExecute_EmptyQuery(t *testing.T) {
	_, err := New().Execute(context.Background(), "   ")
	assert.Error(t, err)
}

func TestMetadata(t *testing.T) {
	st := New()
	assert.Equal(t, "search", st.Name())
	assert.Equal(t, "Search", st.DisplayName())
	assert.Contains(t, st.Description(), "search engine")
}
