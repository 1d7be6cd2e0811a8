package render

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

const baseTemplate = "templates/base.html"

var templateFuncs = template.FuncMap{
	"dataURI": func(b []byte) template.URL {
		return template.URL("data:" + http.DetectContentType(b) + ";base64," + base64.StdEncoding.EncodeToString(b))
	},
}

// MarkupEngine renders the embedded HTML templates. Every template file other
// than base.html defines a "content" block wrapped by the shared layout.
type MarkupEngine struct {
	templates map[string]*template.Template
}

func NewMarkupEngine() (*MarkupEngine, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	e := &MarkupEngine{templates: make(map[string]*template.Template)}
	for _, name := range names {
		if name == baseTemplate {
			continue
		}
		t, err := template.New(path.Base(name)).Funcs(templateFuncs).ParseFS(templateFS, baseTemplate, name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		e.templates[path.Base(name)] = t
	}
	return e, nil
}

// Render executes templateName with ctx and returns the full HTML page.
func (e *MarkupEngine) Render(templateName string, ctx any) (string, error) {
	t, ok := e.templates[templateName]
	if !ok {
		return "", fmt.Errorf("unknown template %q", templateName)
	}
	var b bytes.Buffer
	if err := t.ExecuteTemplate(&b, "base", ctx); err != nil {
		return "", fmt.Errorf("execute template %s: %w", templateName, err)
	}
	return b.String(), nil
}

// RenderDocument renders a markup document with its kind's template.
func (e *MarkupEngine) RenderDocument(doc *Document) ([]byte, error) {
	name := strings.TrimSpace(doc.Template)
	if name == "" {
		return nil, fmt.Errorf("document kind %s has no template", doc.Kind)
	}
	html, err := e.Render(name, doc)
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}
