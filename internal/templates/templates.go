// Package templates holds the embedded stage instruction templates.
package templates

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed stages/*.tmpl
var stageTemplates embed.FS

var parsed = template.Must(template.ParseFS(stageTemplates, "stages/*.tmpl"))

// Render executes the named stage template (e.g. "linear.tmpl") with data.
func Render(name string, data any) (string, error) {
	var b strings.Builder
	if err := parsed.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return b.String(), nil
}
