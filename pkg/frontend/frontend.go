// Package frontend serves the embedded dashboard landing page
package frontend

import (
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	static "github.com/nastad/tmsis-dashboard/frontend"
)

const apiPrefix = "/api/"

type handler struct {
	fileHandler http.Handler
	filesystem  fs.FS
}

// NewHandler creates the landing page handler. Paths that name no asset are
// answered with index.html so page links survive a reload.
func NewHandler() (http.Handler, error) {
	frontendFS, err := fs.Sub(static.FS, "build/frontend")
	if err != nil {
		return nil, fmt.Errorf("failed to load frontend filesystem: %w", err)
	}

	return &handler{
		filesystem:  frontendFS,
		fileHandler: http.FileServer(http.FS(frontendFS)),
	}, nil
}

func (h *handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Unrouted API paths must not turn into HTML
	if strings.HasPrefix(req.URL.Path, apiPrefix) {
		http.NotFound(w, req)
		return
	}

	path := strings.TrimPrefix(req.URL.Path, "/")
	if path != "" && h.fileExists(path) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		h.fileHandler.ServeHTTP(w, req)
		return
	}

	// Page data changes with every cache refresh
	w.Header().Set("Cache-Control", "no-cache")
	req.URL.Path = "/"
	h.fileHandler.ServeHTTP(w, req)
}

func (h *handler) fileExists(path string) bool {
	info, err := fs.Stat(h.filesystem, path)
	return err == nil && !info.IsDir()
}
