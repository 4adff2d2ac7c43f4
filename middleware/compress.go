// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/palmtreesdigital/fundingconnect/config"
)

// compressibleTypes are the response types this service produces that are
// worth compressing. JSON probe output is tiny, so only pages are listed.
var compressibleTypes = []string{"text/html", "text/css", "text/plain"}

// CompressFromConfig returns a gzip/deflate middleware when
// coreCfg.EnableCompression is set, and an identity middleware otherwise.
// The level is validated by the config loader (1-9).
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	level := coreCfg.CompressionLevel
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}
	return middleware.Compress(level, compressibleTypes...)
}
