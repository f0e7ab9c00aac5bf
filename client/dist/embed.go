package clientdist

import _ "embed"

// SizewatchJS is the browser probe script.
//
// It is served at "/sizewatch.js". Include it on a page and mark elements
// with a data-sizewatch attribute to make them watchable.
//
//go:embed sizewatch.js
var SizewatchJS []byte
