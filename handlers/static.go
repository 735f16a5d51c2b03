// Package handlers contains the static file handlers of the frontend server.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"syscall"

	"sihayifrontend/service"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	lru "github.com/hashicorp/golang-lru"
	"github.com/labstack/echo/v4"
)

const contentTypeCacheSize = 512

// indexFiles are served in order when a directory is requested.
var indexFiles = []string{"index.html", "index.htm"}

// StaticServer resolves request paths against a read-only filesystem root.
type StaticServer struct {
	root         fs.FS
	contentTypes *lru.Cache
	logger       log.Logger
}

// NewStaticServer creates a StaticServer over root, normally os.DirFS of the executable directory.
func NewStaticServer(root fs.FS, logger log.Logger) (*StaticServer, error) {
	cache, err := lru.New(contentTypeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create content type cache: %w", err)
	}
	return &StaticServer{
		root:         root,
		contentTypes: cache,
		logger:       log.WithPrefix(logger, "component", "StaticServer"),
	}, nil
}

// ServeStatic (GET|HEAD /*) answers with a file, a directory index or a listing.
// Returns 404 when the path is missing or escapes the root, 500 when the file cannot be read.
func (h *StaticServer) ServeStatic(ectx echo.Context) error {
	name, err := resolveName(ectx.Request().URL)
	if err != nil {
		return err
	}

	info, err := fs.Stat(h.root, name)
	if err != nil {
		return statError(name, err)
	}

	if !info.IsDir() {
		return h.serveFile(ectx, name, info)
	}

	// Relative links in a listing or index only work with a trailing slash.
	reqPath := ectx.Request().URL.Path
	if !strings.HasSuffix(reqPath, "/") {
		// Built from the cleaned name so "//host" can never become a protocol-relative redirect.
		target := (&url.URL{Path: "/" + name + "/"}).EscapedPath()
		if q := ectx.Request().URL.RawQuery; q != "" {
			target += "?" + q
		}
		return ectx.Redirect(http.StatusMovedPermanently, target)
	}

	for _, index := range indexFiles {
		indexName := path.Join(name, index)
		indexInfo, err := fs.Stat(h.root, indexName)
		if err == nil && !indexInfo.IsDir() {
			return h.serveFile(ectx, indexName, indexInfo)
		}
	}

	return h.serveListing(ectx, name, reqPath)
}

// resolveName maps the URL path to an fs.FS name. Cleaning a rooted path
// drops every ".." that would climb above "/".
func resolveName(u *url.URL) (string, error) {
	p := u.Path
	if strings.Contains(p, "\x00") {
		return "", service.NewEntityNotFoundError("file not found", errors.New("path contains NUL"))
	}
	cleaned := path.Clean("/" + p)
	name := strings.TrimPrefix(cleaned, "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", service.NewEntityNotFoundError("file not found", fmt.Errorf("invalid path %q", p))
	}
	return name, nil
}

func statError(name string, err error) error {
	if isNotFound(err) {
		return service.NewEntityNotFoundError("file not found", err)
	}
	return service.NewInternalServerError("can't stat file", fmt.Errorf("stat %q, err: %w", name, err))
}

func openError(name string, err error) error {
	if isNotFound(err) {
		return service.NewEntityNotFoundError("file not found", err)
	}
	return service.NewInternalServerError("can't open file", fmt.Errorf("open %q, err: %w", name, err))
}

func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) || errors.Is(err, syscall.ENOTDIR)
}

// serveFile sets headers only once the file is open, so a failure still gets the JSON error content type.
func (h *StaticServer) serveFile(ectx echo.Context, name string, info fs.FileInfo) error {
	f, err := h.root.Open(name)
	if err != nil {
		return openError(name, err)
	}
	defer f.Close()

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		return service.NewInternalServerError("can't read file", fmt.Errorf("%q is not seekable", name))
	}

	ctype, err := h.contentType(name, info, rs)
	if err != nil {
		return err
	}
	ectx.Response().Header().Set(echo.HeaderContentType, ctype)
	http.ServeContent(ectx.Response(), ectx.Request(), info.Name(), info.ModTime(), rs)
	return nil
}

// contentType uses the extension table first and sniffs the content otherwise,
// rewinding rs afterwards. Sniffed results are cached per name, size and modification time.
func (h *StaticServer) contentType(name string, info fs.FileInfo, rs io.ReadSeeker) (string, error) {
	if ctype := mime.TypeByExtension(path.Ext(name)); ctype != "" {
		return ctype, nil
	}

	key := name + "|" + strconv.FormatInt(info.Size(), 10) + "|" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	if cached, ok := h.contentTypes.Get(key); ok {
		return cached.(string), nil
	}

	detected, err := mimetype.DetectReader(rs)
	if err != nil {
		return "", service.NewInternalServerError("can't read file", fmt.Errorf("sniff %q, err: %w", name, err))
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", service.NewInternalServerError("can't read file", fmt.Errorf("rewind %q, err: %w", name, err))
	}
	ctype := detected.String()
	h.contentTypes.Add(key, ctype)
	level.Debug(h.logger).Log("msg", "sniffed content type", "path", name, "type", ctype)
	return ctype, nil
}
