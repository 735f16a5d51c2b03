package handlers

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"sihayifrontend/metrics"
	"sihayifrontend/service"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// newTestRoot lays out:
//
//	<parent>/secret.txt
//	<parent>/root/index.html          "hello"
//	<parent>/root/app.js
//	<parent>/root/logo                (PNG bytes, no extension)
//	<parent>/root/docs/b.txt, a.txt, nested/
//	<parent>/root/site/index.html
func newTestRoot(t *testing.T) string {
	t.Helper()
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	files := map[string][]byte{
		filepath.Join(parent, "secret.txt"):       []byte("top secret"),
		filepath.Join(root, "index.html"):         []byte("hello"),
		filepath.Join(root, "app.js"):             []byte("console.log('hi')"),
		filepath.Join(root, "logo"):               pngHeader,
		filepath.Join(root, "docs", "b.txt"):      []byte("bee"),
		filepath.Join(root, "docs", "a.txt"):      []byte("ay"),
		filepath.Join(root, "site", "index.html"): []byte("<h1>site</h1>"),
	}
	for name, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, os.WriteFile(name, content, 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "nested"), 0o755))
	return root
}

func newTestEcho(t *testing.T, root string, opts Options) *echo.Echo {
	t.Helper()
	s, err := NewStaticServer(os.DirFS(root), log.NewNopLogger())
	require.NoError(t, err)
	return NewEcho(s, opts, log.NewNopLogger())
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestStaticServer_ServesFiles(t *testing.T) {
	e := newTestEcho(t, newTestRoot(t), Options{})

	tests := []struct {
		name     string
		target   string
		wantBody string
		wantType string
	}{
		{name: "index.html", target: "/index.html", wantBody: "hello", wantType: "text/html"},
		{name: "javascript", target: "/app.js", wantBody: "console.log('hi')", wantType: "javascript"},
		{name: "nested file", target: "/docs/a.txt", wantBody: "ay", wantType: "text/plain"},
		{name: "redundant slashes and dots", target: "/docs/./nested/../b.txt", wantBody: "bee", wantType: "text/plain"},
		{name: "query ignored", target: "/index.html?v=3", wantBody: "hello", wantType: "text/html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodGet, tt.target)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			assert.Contains(t, rec.Header().Get(echo.HeaderContentType), tt.wantType)
		})
	}
}

func TestStaticServer_Missing(t *testing.T) {
	e := newTestEcho(t, newTestRoot(t), Options{})

	for _, target := range []string{"/missing.txt", "/docs/missing/", "/index.html/child"} {
		t.Run(target, func(t *testing.T) {
			rec := do(e, http.MethodGet, target)
			assert.Equal(t, http.StatusNotFound, rec.Code)

			var body service.ErrResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			require.NotNil(t, body.Error)
			assert.Equal(t, service.ErrEntityNotFound, body.Error.Code)
		})
	}
}

func TestStaticServer_RejectsTraversal(t *testing.T) {
	e := newTestEcho(t, newTestRoot(t), Options{})

	for _, target := range []string{
		"/../secret.txt",
		"/%2e%2e/secret.txt",
		"/docs/../../secret.txt",
		"/..%2fsecret.txt",
		"/docs/%2e%2e/%2e%2e/secret.txt",
	} {
		t.Run(target, func(t *testing.T) {
			rec := do(e, http.MethodGet, target)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.NotContains(t, rec.Body.String(), "top secret")
		})
	}
}

func TestStaticServer_DirectoryIndex(t *testing.T) {
	e := newTestEcho(t, newTestRoot(t), Options{})

	first := do(e, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "hello", first.Body.String())

	site := do(e, http.MethodGet, "/site/")
	require.Equal(t, http.StatusOK, site.Code)
	assert.Equal(t, "<h1>site</h1>", site.Body.String())

	again := do(e, http.MethodGet, "/")
	assert.Equal(t, first.Body.String(), again.Body.String())
}

func TestStaticServer_DirectoryListing(t *testing.T) {
	e := newTestEcho(t, newTestRoot(t), Options{})

	first := do(e, http.MethodGet, "/docs/")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Header().Get(echo.HeaderContentType), "text/html")

	body := first.Body.String()
	assert.Contains(t, body, "Directory listing for /docs/")
	a := strings.Index(body, `href="./a.txt"`)
	b := strings.Index(body, `href="./b.txt"`)
	nested := strings.Index(body, `href="./nested/"`)
	require.True(t, a >= 0 && b >= 0 && nested >= 0, body)
	assert.Less(t, a, b)
	assert.Less(t, b, nested)

	second := do(e, http.MethodGet, "/docs/")
	assert.Equal(t, body, second.Body.String(), "listing must be deterministic")
}

func TestStaticServer_ListingEscapesNames(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "<b>bold & co.txt"), []byte("x"), 0o644))
	e := newTestEcho(t, root, Options{})

	rec := do(e, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<b>bold")
	assert.Contains(t, rec.Body.String(), "&lt;b&gt;bold &amp; co.txt")
	assert.Contains(t, rec.Body.String(), "%3Cb%3Ebold%20&amp;%20co.txt")
}

func TestStaticServer_DirectoryRedirect(t *testing.T) {
	e := newTestEcho(t, newTestRoot(t), Options{})

	tests := []struct {
		target       string
		wantLocation string
	}{
		{target: "/docs", wantLocation: "/docs/"},
		{target: "/docs?sort=name", wantLocation: "/docs/?sort=name"},
		{target: "//docs", wantLocation: "/docs/"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(e, http.MethodGet, tt.target)
			assert.Equal(t, http.StatusMovedPermanently, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestStaticServer_Head(t *testing.T) {
	e := newTestEcho(t, newTestRoot(t), Options{})

	rec := do(e, http.MethodHead, "/index.html")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Header().Get(echo.HeaderContentLength))

	missing := do(e, http.MethodHead, "/missing.txt")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Empty(t, missing.Body.Bytes())
}

// unreadableFS stats every file but refuses to open the ones listed in denied.
type unreadableFS struct {
	fstest.MapFS
	denied map[string]error
}

func (u unreadableFS) Open(name string) (fs.File, error) {
	if err, ok := u.denied[name]; ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return u.MapFS.Open(name)
}

func TestStaticServer_OpenFailure(t *testing.T) {
	root := unreadableFS{
		MapFS: fstest.MapFS{
			"page.html":      {Data: []byte("<p>page</p>")},
			"blob":           {Data: pngHeader},
			"gone.css":       {Data: []byte("body{}")},
			"public/ok.html": {Data: []byte("ok")},
		},
		denied: map[string]error{
			"page.html": fs.ErrPermission,
			"blob":      fs.ErrPermission,
			"gone.css":  fs.ErrNotExist,
		},
	}
	s, err := NewStaticServer(root, log.NewNopLogger())
	require.NoError(t, err)
	e := NewEcho(s, Options{}, log.NewNopLogger())

	tests := []struct {
		target      string
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{target: "/page.html", wantStatus: http.StatusInternalServerError, wantCode: service.ErrInternalServerError, wantMessage: "can't open file"},
		{target: "/blob", wantStatus: http.StatusInternalServerError, wantCode: service.ErrInternalServerError, wantMessage: "can't open file"},
		{target: "/gone.css", wantStatus: http.StatusNotFound, wantCode: service.ErrEntityNotFound, wantMessage: "file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(e, http.MethodGet, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))

			var body service.ErrResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMessage, body.Error.Message)
		})
	}

	ok := do(e, http.MethodGet, "/public/ok.html")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "ok", ok.Body.String())
}

func TestStaticServer_MethodNotAllowed(t *testing.T) {
	e := newTestEcho(t, newTestRoot(t), Options{})

	rec := do(e, http.MethodPost, "/index.html")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var body service.ErrResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Error)
	assert.Equal(t, service.ErrMethodNotAllowed, body.Error.Code)
}

func TestStaticServer_Range(t *testing.T) {
	e := newTestEcho(t, newTestRoot(t), Options{})

	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	req.Header.Set("Range", "bytes=1-3")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "ell", rec.Body.String())
}

func TestStaticServer_SniffsExtensionlessFiles(t *testing.T) {
	root := newTestRoot(t)
	s, err := NewStaticServer(os.DirFS(root), log.NewNopLogger())
	require.NoError(t, err)
	e := NewEcho(s, Options{}, log.NewNopLogger())

	for i := 0; i < 2; i++ {
		rec := do(e, http.MethodGet, "/logo")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, pngHeader, rec.Body.Bytes())
	}
	assert.Equal(t, 1, s.contentTypes.Len(), "sniff result is cached")
}

func TestStaticServer_CountsMetrics(t *testing.T) {
	m := metrics.New()
	e := newTestEcho(t, newTestRoot(t), Options{Metrics: m})

	do(e, http.MethodGet, "/index.html")
	do(e, http.MethodGet, "/missing.txt")

	rec := httptest.NewRecorder()
	m.NewEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `frontend_http_requests_total{code="200",method="GET"} 1`)
	assert.Contains(t, rec.Body.String(), `frontend_http_requests_total{code="404",method="GET"} 1`)
}

func TestInFlightLimiter(t *testing.T) {
	e := echo.New()
	service.RegisterErrorHandler(e, log.NewNopLogger())
	e.Use(inFlightLimiter(1))

	entered := make(chan struct{})
	release := make(chan struct{})
	e.GET("/slow", func(c echo.Context) error {
		close(entered)
		<-release
		return c.NoContent(http.StatusOK)
	})
	e.GET("/fast", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	done := make(chan int)
	go func() {
		done <- do(e, http.MethodGet, "/slow").Code
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/fast", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/fast").Code)
}
