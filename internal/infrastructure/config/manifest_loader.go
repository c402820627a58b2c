// Package config provides infrastructure for loading rule manifests and
// input data. It handles YAML parsing, schema validation, variable
// substitution and compilation of manifest expressions.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/expressions"
)

// ManifestLoader loads manifests from YAML.
//
// Loading runs in stages, each failing with every problem it found:
//   - JSON schema validation of the raw document
//   - variable substitution ({{ .vars.key }}, {{ .secrets.name }})
//   - structural validation (unique IDs, known references, semver metadata)
//   - expression compilation
type ManifestLoader struct {
	compiler *Compiler
	secrets  SecretResolver
}

// NewManifestLoader creates a loader with its own expression cache.
func NewManifestLoader() *ManifestLoader {
	return &ManifestLoader{compiler: NewCompiler(expressions.NewCache())}
}

// NewManifestLoaderWithCache creates a loader sharing cache with other loaders.
func NewManifestLoaderWithCache(cache *expressions.Cache) *ManifestLoader {
	return &ManifestLoader{compiler: NewCompiler(cache)}
}

// SetSecretResolver enables {{ .secrets.name }} references.
func (l *ManifestLoader) SetSecretResolver(r SecretResolver) {
	l.secrets = r
}

// Load reads and compiles the manifest at path.
func (l *ManifestLoader) Load(path string) (*manifest.Manifest, error) {
	file, closeFn, err := openInRoot(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer closeFn()

	m, err := l.LoadFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadFromReader reads and compiles a manifest from r.
func (l *ManifestLoader) LoadFromReader(r io.Reader) (*manifest.Manifest, error) {
	doc, err := l.LoadDocument(r)
	if err != nil {
		return nil, err
	}
	return l.compiler.Compile(doc)
}

// LoadDocument reads, schema-validates and substitutes a manifest document
// without compiling it.
func (l *ManifestLoader) LoadDocument(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}

	if err := NewVariableSubstitutor(doc.Vars).WithSecrets(l.secrets).Substitute(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// openInRoot opens path confined to its directory with os.OpenRoot so a
// crafted base name cannot escape it.
func openInRoot(path string) (*os.File, func(), error) {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open directory: %w", err)
	}

	file, err := root.Open(filepath.Base(path))
	if err != nil {
		_ = root.Close()
		return nil, nil, err
	}

	return file, func() {
		_ = file.Close()
		_ = root.Close()
	}, nil
}
