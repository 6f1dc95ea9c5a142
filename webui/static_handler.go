package webui

import (
	"bytes"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"sdweb/webui/static"
)

// StaticAssetHandler serves the embedded page and its assets with
// MIME type detection and cache headers.
type StaticAssetHandler struct {
	fs           fs.FS
	indexFile    string
	enableCache  bool
	cacheMaxAge  int
	notFoundFunc http.HandlerFunc
}

// StaticAssetConfig configures the StaticAssetHandler.
type StaticAssetConfig struct {
	// IndexFile is served for "/" and directory requests (default: "index.html")
	IndexFile string

	// EnableCache enables cache headers for assets other than the index (default: true)
	EnableCache bool

	// CacheMaxAge is the max-age in seconds for cache headers (default: 3600)
	CacheMaxAge int

	// NotFoundFunc is called when a file is not found (default: http.NotFound)
	NotFoundFunc http.HandlerFunc
}

// DefaultStaticAssetConfig returns a default configuration.
func DefaultStaticAssetConfig() StaticAssetConfig {
	return StaticAssetConfig{
		IndexFile:   "index.html",
		EnableCache: true,
		CacheMaxAge: 3600,
	}
}

// NewStaticAssetHandler creates a handler over the embedded assets.
func NewStaticAssetHandler(config StaticAssetConfig) *StaticAssetHandler {
	return NewStaticAssetHandlerWithFS(static.GetFS(), config)
}

// NewStaticAssetHandlerWithFS creates a handler over fsys.
func NewStaticAssetHandlerWithFS(fsys fs.FS, config StaticAssetConfig) *StaticAssetHandler {
	if config.IndexFile == "" {
		config.IndexFile = "index.html"
	}
	if config.CacheMaxAge <= 0 {
		config.CacheMaxAge = 3600
	}
	return &StaticAssetHandler{
		fs:           fsys,
		indexFile:    config.IndexFile,
		enableCache:  config.EnableCache,
		cacheMaxAge:  config.CacheMaxAge,
		notFoundFunc: config.NotFoundFunc,
	}
}

// ServeHTTP implements http.Handler.
func (h *StaticAssetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	// path.Clean on a rooted path removes any ".." segments
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = h.indexFile
	}

	stat, err := fs.Stat(h.fs, name)
	if err != nil {
		h.handleNotFound(w, r)
		return
	}
	if stat.IsDir() {
		name = path.Join(name, h.indexFile)
		if stat, err = fs.Stat(h.fs, name); err != nil || stat.IsDir() {
			h.handleNotFound(w, r)
			return
		}
	}

	data, err := fs.ReadFile(h.fs, name)
	if err != nil {
		h.handleNotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", detectContentType(name))
	if h.enableCache && path.Base(name) != h.indexFile {
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(h.cacheMaxAge))
	} else {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	}

	http.ServeContent(w, r, stat.Name(), stat.ModTime(), bytes.NewReader(data))
}

// detectContentType determines the MIME type based on file extension.
func detectContentType(filePath string) string {
	ext := strings.ToLower(path.Ext(filePath))

	switch ext {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "text/javascript; charset=utf-8"
	case ".json", ".map":
		return "application/json"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".ico":
		return "image/x-icon"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (h *StaticAssetHandler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if h.notFoundFunc != nil {
		h.notFoundFunc(w, r)
		return
	}
	http.NotFound(w, r)
}
