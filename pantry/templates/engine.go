// pantry/templates/engine.go
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// LayoutName is the entry template every page is executed through. The
// shared set defines it; pages define the blocks it calls ("title", "content").
const LayoutName = "layout"

// Engine holds one compiled template per page. Each page is a clone of the
// shared layout with exactly one page file parsed into it, so pages can all
// define "content" without clobbering each other.
//
// An Engine is read-only after Boot and safe for concurrent use.
type Engine struct {
	funcs  template.FuncMap
	pages  map[string]*template.Template
	logger *zap.Logger
}

// New creates an empty Engine.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		funcs:  Funcs(),
		pages:  map[string]*template.Template{},
		logger: logger,
	}
}

// Boot compiles sets (or every registered Set when none are given). Exactly
// one set must be named "shared"; it holds the layout. Page names are file
// names without extension, e.g. templates/thanks.gohtml -> "thanks".
func (e *Engine) Boot(sets ...Set) error {
	if len(sets) == 0 {
		sets = All()
	}

	var shared *Set
	var others []Set
	for i := range sets {
		if sets[i].Name == "shared" {
			shared = &sets[i]
			continue
		}
		others = append(others, sets[i])
	}
	if shared == nil {
		return fmt.Errorf("shared templates not registered")
	}

	base := template.New("root").Funcs(e.funcs)
	files, err := globAll(shared.FS, shared.Patterns)
	if err != nil {
		return fmt.Errorf("glob shared: %w", err)
	}
	for _, f := range files {
		if err := parseFile(base, shared.FS, f); err != nil {
			return err
		}
	}
	if base.Lookup(LayoutName) == nil {
		return fmt.Errorf("shared templates do not define %q", LayoutName)
	}

	for _, s := range others {
		files, err := globAll(s.FS, s.Patterns)
		if err != nil {
			return fmt.Errorf("glob set %q: %w", s.Name, err)
		}
		if len(files) == 0 {
			e.logger.Warn("no templates matched", zap.String("set", s.Name))
		}
		for _, f := range files {
			name := pageName(f)
			if _, dup := e.pages[name]; dup {
				return fmt.Errorf("page %q defined twice (set %q)", name, s.Name)
			}
			page, err := base.Clone()
			if err != nil {
				return fmt.Errorf("clone layout: %w", err)
			}
			if err := parseFile(page, s.FS, f); err != nil {
				return err
			}
			e.pages[name] = page
			e.logger.Debug("template page compiled",
				zap.String("set", s.Name), zap.String("page", name))
		}
	}
	return nil
}

// Has reports whether a page was compiled.
func (e *Engine) Has(name string) bool {
	_, ok := e.pages[name]
	return ok
}

// Render executes page name into w. Output is buffered so a failing
// template never leaves a half-written page.
func (e *Engine) Render(w io.Writer, name string, data any) error {
	t, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, LayoutName, data); err != nil {
		return fmt.Errorf("execute %q: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func parseFile(t *template.Template, fsys fs.FS, name string) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if _, err := t.Parse(string(b)); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func pageName(file string) string {
	base := path.Base(file)
	return strings.TrimSuffix(base, path.Ext(base))
}

func globAll(fsys fs.FS, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pat := range patterns {
		matches, err := fs.Glob(fsys, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}
