package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"sihayifrontend/service"

	"github.com/labstack/echo/v4"
)

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE HTML>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Directory listing for {{.Path}}</title>
</head>
<body>
<h1>Directory listing for {{.Path}}</h1>
<hr>
<ul>
{{- range .Entries}}
<li><a href="{{.Href}}">{{.Name}}</a></li>
{{- end}}
</ul>
<hr>
</body>
</html>
`))

type listingEntry struct {
	Name string
	Href string
}

type listingPage struct {
	Path    string
	Entries []listingEntry
}

// serveListing renders the entries of dir (fs.ReadDir sorts them by name); directories get a trailing slash.
func (h *StaticServer) serveListing(ectx echo.Context, dir string, reqPath string) error {
	entries, err := fs.ReadDir(h.root, dir)
	if err != nil {
		return openError(dir, err)
	}
	page := listingPage{Path: reqPath, Entries: make([]listingEntry, 0, len(entries))}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		page.Entries = append(page.Entries, listingEntry{
			Name: name,
			Href: "./" + (&url.URL{Path: name}).EscapedPath(),
		})
	}

	var buf bytes.Buffer
	if err := listingTemplate.Execute(&buf, page); err != nil {
		return service.NewInternalServerError("can't render listing", fmt.Errorf("render %q, err: %w", dir, err))
	}
	return ectx.HTMLBlob(http.StatusOK, buf.Bytes())
}
