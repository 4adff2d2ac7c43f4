// pantry/fileserver/fileserver.go

// Package fileserver serves a small set of static pages from an fs.FS, such
// as an embedded directory or os.DirFS for a deployment override.
package fileserver

import (
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/palmtreesdigital/fundingconnect/pantry/assets"
)

// etagEntry is a cached ETag, valid while the file's modtime and size match.
type etagEntry struct {
	mod  time.Time
	size int64
	tag  string
}

// Options configures the handler.
type Options struct {
	// CacheControl is sent with every file, e.g. "public, max-age=300".
	CacheControl string
	// Index is served for "/" (default "index.html").
	Index string
}

// Handler serves files from fsys for GET and HEAD. Directories and missing
// files are 404; other methods are 405. Each file gets a content-hash ETag,
// so conditional requests are answered with 304. Tags are recomputed when a
// file's modtime or size changes, so pages edited under os.DirFS are picked
// up without a restart.
//
// Unlike http.FileServer it never redirects "/index.html" to "/": static
// forms link to the file name directly.
func Handler(fsys fs.FS, opts Options) http.Handler {
	if opts.Index == "" {
		opts.Index = "index.html"
	}
	var etags sync.Map // name -> etagEntry

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = opts.Index
		}

		f, err := fsys.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			http.NotFound(w, r)
			return
		}
		rs, ok := f.(io.ReadSeeker)
		if !ok {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		v, _ := etags.Load(name)
		e, ok := v.(etagEntry)
		if !ok || !e.mod.Equal(fi.ModTime()) || e.size != fi.Size() {
			e = etagEntry{mod: fi.ModTime(), size: fi.Size(), tag: assets.ETag(fsys, name)}
			etags.Store(name, e)
		}
		if e.tag != "" {
			w.Header().Set("ETag", e.tag)
		}
		if opts.CacheControl != "" {
			w.Header().Set("Cache-Control", opts.CacheControl)
		}
		http.ServeContent(w, r, name, fi.ModTime(), rs)
	})
}
