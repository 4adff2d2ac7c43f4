// pantry/templates/views.go
package templates

import (
	"io/fs"
	"sync"
)

// Set describes one package's templates.
type Set struct {
	// Name is for logging; the set named "shared" holds the layout.
	Name string
	// FS is usually an embed.FS from the owning package.
	FS fs.FS
	// Patterns are fs.Glob patterns, e.g. []string{"templates/*.gohtml"}.
	Patterns []string
}

var (
	registryMu sync.RWMutex
	registry   []Set
)

// Register records a Set for Engine.Boot. Feature packages call it from init().
func Register(s Set) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, s)
}

// All returns the registered sets.
func All() []Set {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Set, len(registry))
	copy(out, registry)
	return out
}
