// internal/app/resources/resources.go
package resources

import (
	"embed"

	"github.com/palmtreesdigital/fundingconnect/pantry/templates"
)

//go:embed templates/*.gohtml
var sharedFS embed.FS

// SharedSet is the page layout every rendered page goes through.
var SharedSet = templates.Set{
	Name:     "shared",
	FS:       sharedFS,
	Patterns: []string{"templates/*.gohtml"},
}

func init() {
	templates.Register(SharedSet)
}
