// Package templates provides embedded templates for manifest scaffolding.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"text/template"
)

// Manifests use {{ }} for variable references, so scaffolds use [[ ]].
const (
	leftDelim  = "[["
	rightDelim = "]]"
)

//go:embed scaffold
var scaffolds embed.FS

// ManifestData contains the data used to render scaffold templates.
type ManifestData struct {
	// Name is the kebab-case manifest name (e.g., "order-rules")
	Name string
	// Title is the title case name (e.g., "Order Rules")
	Title string
	// RootType is the PascalCase type of the root node (e.g., "OrderRules")
	RootType string
	// Requires is an optional engine version constraint (e.g., ">= 1.2.0")
	Requires string
}

// Scaffolds returns every scaffold template, named "<kind>/<file>".
func Scaffolds() (*template.Template, error) {
	tmpl := template.New("").Delims(leftDelim, rightDelim)

	err := fs.WalkDir(scaffolds, "scaffold", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}

		content, err := scaffolds.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", path, err)
		}

		name := strings.TrimSuffix(strings.TrimPrefix(path, "scaffold/"), ".tmpl")
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("parsing template %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	return tmpl, nil
}

// Kinds lists the available scaffold kinds.
func Kinds() []string {
	entries, err := scaffolds.ReadDir("scaffold")
	if err != nil {
		return nil
	}
	kinds := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			kinds = append(kinds, e.Name())
		}
	}
	sort.Strings(kinds)
	return kinds
}

// TemplateFiles returns the files a scaffold kind generates.
func TemplateFiles(kind string) ([]string, error) {
	for _, k := range Kinds() {
		if k == kind {
			return []string{"manifest.yaml", "data.yaml"}, nil
		}
	}
	return nil, fmt.Errorf("unsupported scaffold kind: %s (available: %s)", kind, strings.Join(Kinds(), ", "))
}

// OutputName maps a template file to the file written for manifest name.
func OutputName(name, file string) string {
	if file == "manifest.yaml" {
		return name + ".yaml"
	}
	return name + "." + file
}
