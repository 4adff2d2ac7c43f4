// pantry/email/template.go
package email

import (
	"bytes"
	"fmt"
	"strings"
	texttemplate "text/template"
)

// Template pairs a subject and a plain-text body template. Rendering is not
// HTML-escaped; values should already be sanitized.
type Template struct {
	name    string
	subject *texttemplate.Template
	body    *texttemplate.Template
}

// ParseTemplate compiles subject and body. Missing keys are errors so a typo
// in a field name cannot produce "<no value>" in a delivered mail.
func ParseTemplate(name, subject, body string) (*Template, error) {
	s, err := texttemplate.New(name + ".subject").Option("missingkey=error").Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("email: parse subject template %s: %w", name, err)
	}
	b, err := texttemplate.New(name + ".body").Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("email: parse body template %s: %w", name, err)
	}
	return &Template{name: name, subject: s, body: b}, nil
}

// MustParseTemplate is ParseTemplate for package-level templates.
func MustParseTemplate(name, subject, body string) *Template {
	t, err := ParseTemplate(name, subject, body)
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes both templates with data. Line breaks in the subject are
// replaced with spaces so user input cannot add header lines.
func (t *Template) Render(data any) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := t.subject.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("email: render subject %s: %w", t.name, err)
	}
	subject = strings.Join(strings.Fields(strings.NewReplacer("\r", " ", "\n", " ").Replace(buf.String())), " ")

	buf.Reset()
	if err := t.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("email: render body %s: %w", t.name, err)
	}
	return subject, buf.String(), nil
}
