// Package web embeds the dashboard and admin console.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// GetTemplatesFS returns the page templates rooted at templates/.
func GetTemplatesFS() fs.FS {
	return mustSub(templatesFS, "templates")
}

// GetStaticFS returns the CSS and scripts rooted at static/.
func GetStaticFS() fs.FS {
	return mustSub(staticFS, "static")
}

// mustSub is fs.Sub for a directory that is always embedded.
func mustSub(fsys embed.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
