// Package templates carries the server-rendered pages and their static assets.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed html/*.html
var HTML embed.FS

//go:embed static
var static embed.FS

// Static is served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
