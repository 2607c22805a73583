// Package docs bundles the long-form documentation into the binary.
package docs

import "embed"

//go:embed *.md
var FS embed.FS
