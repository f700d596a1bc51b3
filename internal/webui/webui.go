// Package webui provides the embedded static files for the visualizer
// front end.
package webui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFS embed.FS

// StaticFS returns an http.FileSystem rooted at the static directory.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The embed path is fixed at compile time.
		panic(err)
	}
	return http.FS(sub)
}
