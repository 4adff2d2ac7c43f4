// internal/app/features/site/site.go
package site

import (
	"embed"
	"io/fs"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/palmtreesdigital/fundingconnect/pantry/fileserver"
)

//go:embed static
var staticFS embed.FS

// Pages are the static files served at the site root.
var Pages = []string{"index.html", "thank-you.html", "styles.css"}

// FS returns the directory the pages are served from: dir when set (a
// deployment can ship its own form), otherwise the built-in pages.
func FS(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory
	}
	return sub
}

// Mount serves "/" and each of Pages. Nothing else in fsys is exposed.
func Mount(r chi.Router, fsys fs.FS) {
	h := fileserver.Handler(fsys, fileserver.Options{CacheControl: "public, max-age=300"})
	r.Handle("/", h)
	for _, p := range Pages {
		r.Handle("/"+p, h)
	}
}
