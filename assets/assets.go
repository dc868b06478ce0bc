// Package assets embeds the generated web page and icons.
package assets

import _ "embed"

// Index is the minified page produced by cmd/minify.
//
//go:embed index.html
var Index []byte

// Favicon is the site icon.
//
//go:embed favicon.svg
var Favicon []byte
