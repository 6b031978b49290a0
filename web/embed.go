// Package web embeds the storefront and admin templates and static assets.
package web

import "embed"

// FS holds storefront/{templates,static} and admin/{templates,static}.
// The all: prefix keeps the "_" partial templates.
//
//go:embed all:storefront all:admin
var FS embed.FS
