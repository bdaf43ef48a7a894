// Package web holds the page templates, SSE fragments and static assets
// served by the cropfusion server.
package web

import "embed"

// FS is the embedded web tree: templates/ and static/.
//
//go:embed templates static
var FS embed.FS
