// pantry/templates/http.go
package templates

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"
)

// WriteHTML renders page name and writes it with status. If rendering fails
// nothing of the page is sent; the client gets a plain-text 500 instead.
func (e *Engine) WriteHTML(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := e.Render(&buf, name, data); err != nil {
		e.logger.Error("template render failed", zap.String("name", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
