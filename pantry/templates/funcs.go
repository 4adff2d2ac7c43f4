// pantry/templates/funcs.go
package templates

import (
	"html/template"
	"net/url"
	"strings"
	"time"
)

// Funcs returns helpers available to all templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"urlquery": url.QueryEscape,
		"lower":    strings.ToLower,
		"upper":    strings.ToUpper,
		"join":     strings.Join,
		// {{ year }} in page footers
		"year": func() int { return time.Now().Year() },
	}
}
