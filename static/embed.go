// Package static embeds the web client assets served by the API server.
package static

import "embed"

//go:embed index.html app.js style.css
var files embed.FS

// Files returns the embedded asset filesystem.
func Files() embed.FS { return files }
