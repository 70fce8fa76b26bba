// Package web provides embedded static assets (CSS, JS) for the admin interface.
// In development, templates load Tailwind and HTMX from CDN; in production, the
// compiled stylesheet and vendored HTMX are embedded here and served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree. Release builds place the
// compiled admin.css and htmx.min.js next to the Tailwind input.css source.
//
//go:embed all:static
var StaticFS embed.FS
