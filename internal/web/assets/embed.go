package assets

import "embed"

//go:embed static
var staticFS embed.FS

// StaticFS exposes the embedded static assets.
func StaticFS() embed.FS {
	return staticFS
}
