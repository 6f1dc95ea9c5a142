// Package static embeds the single-page front end.
package static

import (
	"embed"
	"io/fs"
)

// StaticFS holds index.html, css/app.css and js/app.js.
//
//go:embed index.html css js
var StaticFS embed.FS

// GetFS returns the embedded filesystem.
func GetFS() fs.FS {
	return StaticFS
}

// ReadFile reads a file from the embedded filesystem.
func ReadFile(name string) ([]byte, error) {
	return StaticFS.ReadFile(name)
}
