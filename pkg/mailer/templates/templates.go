package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
)

//go:embed *.tmpl
var FS embed.FS

// Render executes the subject, text and html variants of a named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	if data == nil {
		data = map[string]any{}
	}
	if subject, err = renderText(name+".subject.tmpl", data); err != nil {
		return "", "", "", err
	}
	if text, err = renderText(name+".txt.tmpl", data); err != nil {
		return "", "", "", err
	}
	h, err := htmpl.ParseFS(FS, name+".html.tmpl")
	if err != nil {
		return "", "", "", fmt.Errorf("template %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := h.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render %q html: %w", name, err)
	}
	return strings.TrimSpace(subject), text, buf.String(), nil
}

func renderText(file string, data map[string]any) (string, error) {
	t, err := texttpl.ParseFS(FS, file)
	if err != nil {
		return "", fmt.Errorf("template %q: %w", file, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %q: %w", file, err)
	}
	return buf.String(), nil
}
