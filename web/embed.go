package web

import (
	"bytes"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

// staticFS embeds the web client build (web/dist) into the binary.
//
//go:embed all:dist
var staticFS embed.FS

// FS returns the embedded build rooted at dist.
func FS() (fs.FS, error) {
	return fs.Sub(staticFS, "dist")
}

// FallbackHeader is set on index.html when it answers an unknown client-side route.
// It carries the same name as cachegate.FallbackHeader.
const FallbackHeader = "X-Document-Fallback"

// Handler serves files from fsys as the web origin. Unknown extension-less paths are
// client-side routes and get index.html marked with FallbackHeader; unknown assets get 404.
func Handler(fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}

		data, err := fs.ReadFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			if path.Ext(name) != "" {
				http.NotFound(w, r)
				return
			}
			name = "index.html"
			data, err = fs.ReadFile(fsys, name)
			w.Header().Set(FallbackHeader, "1")
		}
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
	})
}
