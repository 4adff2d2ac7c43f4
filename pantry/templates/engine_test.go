package templates

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func testSets() []Set {
	shared := fstest.MapFS{
		"layout.gohtml": {Data: []byte(`{{define "layout"}}<title>{{template "title" .}}</title><main>{{template "content" .}}</main>{{end}}`)},
	}
	pages := fstest.MapFS{
		"templates/thanks.gohtml": {Data: []byte(`{{define "title"}}Thank You{{end}}{{define "content"}}<p>{{.Name}}</p>{{end}}`)},
		"templates/oops.gohtml":   {Data: []byte(`{{define "title"}}Oops{{end}}{{define "content"}}<a href="mailto:{{.To}}">{{.To}}</a>{{end}}`)},
	}
	return []Set{
		{Name: "shared", FS: shared, Patterns: []string{"*.gohtml"}},
		{Name: "pages", FS: pages, Patterns: []string{"templates/*.gohtml"}},
	}
}

func TestEngine_RendersEachPageWithItsOwnContent(t *testing.T) {
	e := New(nil)
	if err := e.Boot(testSets()...); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	var b strings.Builder
	if err := e.Render(&b, "thanks", map[string]string{"Name": "<b>Jane</b>"}); err != nil {
		t.Fatalf("Render thanks: %v", err)
	}
	got := b.String()
	if !strings.Contains(got, "<title>Thank You</title>") {
		t.Errorf("thanks title missing: %q", got)
	}
	if !strings.Contains(got, "&lt;b&gt;Jane&lt;/b&gt;") {
		t.Errorf("value not escaped: %q", got)
	}

	b.Reset()
	if err := e.Render(&b, "oops", map[string]string{"To": "fundingconnect@palmtreesdigital.com"}); err != nil {
		t.Fatalf("Render oops: %v", err)
	}
	if !strings.Contains(b.String(), `href="mailto:fundingconnect@palmtreesdigital.com"`) {
		t.Errorf("mailto link missing: %q", b.String())
	}
}

func TestEngine_Errors(t *testing.T) {
	e := New(nil)
	if err := e.Boot(testSets()[1:]...); err == nil {
		t.Error("expected error without a shared set")
	}

	e = New(nil)
	if err := e.Boot(testSets()...); err != nil {
		t.Fatal(err)
	}
	if err := e.Render(&strings.Builder{}, "missing", nil); err == nil {
		t.Error("expected error for unknown page")
	}
	if !e.Has("oops") || e.Has("missing") {
		t.Error("Has reports wrong pages")
	}
}

func TestEngine_WriteHTML(t *testing.T) {
	e := New(nil)
	if err := e.Boot(testSets()...); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	e.WriteHTML(rec, http.StatusOK, "thanks", map[string]string{"Name": "Jane"})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	rec = httptest.NewRecorder()
	e.WriteHTML(rec, http.StatusOK, "thanks", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("render failure status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<main>") {
		t.Error("partial page leaked after render failure")
	}
}
