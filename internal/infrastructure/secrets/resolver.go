// Package secrets resolves {{ .secrets.name }} manifest references from the
// sources configured in the system config.
package secrets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reglet-dev/rulegraph/internal/infrastructure/system"
)

// ErrNotFound is returned when no source defines the requested secret.
var ErrNotFound = errors.New("secret not found")

// Tracker records resolved values so they can be scrubbed from output.
// *redaction.Redactor satisfies it.
type Tracker interface {
	Track(value string)
}

// Resolver looks secrets up in the configured sources. Lookups are cached
// for the lifetime of the resolver and every resolved value is handed to
// the tracker.
type Resolver struct {
	sources *system.SecretsConfig
	tracker Tracker
	cache   map[string]string
	mu      sync.RWMutex
}

// NewResolver creates a resolver. A nil tracker disables tracking.
func NewResolver(sources *system.SecretsConfig, tracker Tracker) *Resolver {
	return &Resolver{
		sources: sources,
		tracker: tracker,
		cache:   make(map[string]string),
	}
}

// Resolve returns the value of the named secret. Sources are consulted in
// the order local, env, files; the first one that defines the name wins.
func (r *Resolver) Resolve(name string) (string, error) {
	r.mu.RLock()
	value, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return value, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if value, ok := r.cache[name]; ok {
		return value, nil
	}

	value, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	r.cache[name] = value
	if r.tracker != nil {
		r.tracker.Track(value)
	}
	return value, nil
}

func (r *Resolver) lookup(name string) (string, error) {
	if r.sources == nil {
		return "", fmt.Errorf("%w: %q (no secret sources configured)", ErrNotFound, name)
	}

	if value, ok := r.sources.Local[name]; ok {
		return value, nil
	}

	if envVar, ok := r.sources.Env[name]; ok {
		value, set := os.LookupEnv(envVar)
		if !set || value == "" {
			return "", fmt.Errorf("secret %q: environment variable %s is not set", name, envVar)
		}
		return value, nil
	}

	if path, ok := r.sources.Files[name]; ok {
		return readSecretFile(name, path)
	}

	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// readSecretFile reads a secret from path, confined to the file's own
// directory so the configured name cannot walk elsewhere.
func readSecretFile(name, path string) (string, error) {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("secret %q: %w", name, err)
	}
	defer func() { _ = root.Close() }()

	f, err := root.Open(filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("secret %q: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("secret %q: reading %s: %w", name, path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
