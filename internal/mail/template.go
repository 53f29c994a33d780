package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

// Template names.
const (
	TemplateVerifyEmail = "verify_email"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates renders the embedded HTML email bodies.
type Templates struct {
	set *template.Template
}

// LoadTemplates parses the embedded templates.
func LoadTemplates() (*Templates, error) {
	set, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Templates{set: set}, nil
}

// MustLoadTemplates is LoadTemplates for package initialization paths.
func MustLoadTemplates() *Templates {
	t, err := LoadTemplates()
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the named template.
func (t *Templates) Render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.set.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// VerifyEmailData feeds the verify_email template.
type VerifyEmailData struct {
	Name  string
	Link  string
	Hours int
}
