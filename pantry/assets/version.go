// pantry/assets/version.go
package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
)

// ContentHash computes a 10-character hex SHA-256 fingerprint of the
// concatenated content of the named files inside fsys. Unreadable files are
// skipped.
func ContentHash(fsys fs.FS, paths ...string) string {
	h := sha256.New()
	for _, name := range paths {
		if data, err := fs.ReadFile(fsys, name); err == nil {
			h.Write(data)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:10]
}

// ETag returns a strong validator for a single file, or "" if it cannot be read.
func ETag(fsys fs.FS, name string) string {
	if _, err := fs.Stat(fsys, name); err != nil {
		return ""
	}
	return `"` + ContentHash(fsys, name) + `"`
}
