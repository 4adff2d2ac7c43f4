// internal/app/features/submission/routes.go
package submission

import (
	"embed"

	"github.com/go-chi/chi/v5"
	"github.com/palmtreesdigital/fundingconnect/pantry/templates"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// TemplateSet holds the thank-you and apology pages.
var TemplateSet = templates.Set{
	Name:     "submission",
	FS:       templateFS,
	Patterns: []string{"templates/*.gohtml"},
}

func init() {
	templates.Register(TemplateSet)
}

// Mount registers the endpoint for every method; the handler itself
// answers non-POST requests with 405. /submit.php keeps existing static
// forms working.
func Mount(r chi.Router, h *Handler) {
	r.Handle("/submit", h)
	r.Handle("/submit.php", h)
}
