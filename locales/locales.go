// Package locales embeds the message catalogs shipped with the service.
package locales

import (
	"embed"
	"io/fs"
)

//go:embed *.yaml
var catalogs embed.FS

// FS returns the embedded catalogs, one <language>.yaml file per language.
func FS() fs.FS {
	return catalogs
}
