package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Reference patterns: {{ .vars.key }} and {{ .secrets.name }}
var varPattern = regexp.MustCompile(`\{\{\s*\.(vars|secrets)\.([a-zA-Z0-9_.]+)\s*\}\}`)

// SecretResolver resolves {{ .secrets.name }} references.
type SecretResolver interface {
	Resolve(name string) (string, error)
}

// VariableSubstitutor expands {{ .vars.key }} references in manifest
// expressions with values from the manifest's vars map, and
// {{ .secrets.name }} references through a SecretResolver.
type VariableSubstitutor struct {
	vars    map[string]any
	secrets SecretResolver
}

// NewVariableSubstitutor creates a substitutor over vars.
func NewVariableSubstitutor(vars map[string]any) *VariableSubstitutor {
	return &VariableSubstitutor{vars: vars}
}

// WithSecrets sets the resolver used for secret references. Without one,
// any secret reference is an error.
func (s *VariableSubstitutor) WithSecrets(r SecretResolver) *VariableSubstitutor {
	s.secrets = r
	return s
}

// Substitute rewrites every expression of doc in place. A reference to a
// missing variable is an error.
func (s *VariableSubstitutor) Substitute(doc *Document) error {
	var errs []string
	doc.Root.walk(func(n *NodeDocument) {
		for _, field := range []*string{&n.Accessor, &n.Identity} {
			if err := s.substituteField(field); err != nil {
				errs = append(errs, fmt.Sprintf("node %s: %v", n.ID, err))
			}
		}
		errs = append(errs, s.substituteRules(n.ID, n.Rules)...)
		for i := range n.Branches {
			b := &n.Branches[i]
			if err := s.substituteField(&b.When); err != nil {
				errs = append(errs, fmt.Sprintf("node %s, branch %d: %v", n.ID, i, err))
			}
			errs = append(errs, s.substituteRules(n.ID, b.Rules)...)
		}
	})
	if len(errs) > 0 {
		return fmt.Errorf("variable substitution failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (s *VariableSubstitutor) substituteRules(nodeID string, rules []RuleDocument) []string {
	var errs []string
	for i := range rules {
		if err := s.substituteField(&rules[i].Expr); err != nil {
			errs = append(errs, fmt.Sprintf("node %s, rule %s: %v", nodeID, rules[i].ID, err))
		}
	}
	return errs
}

func (s *VariableSubstitutor) substituteField(field *string) error {
	out, err := s.substituteInString(*field)
	if err != nil {
		return err
	}
	*field = out
	return nil
}

// substituteInString replaces patterns with values. Strings are inserted
// as quoted expression literals so they cannot change the expression's
// structure.
func (s *VariableSubstitutor) substituteInString(str string) (string, error) {
	var lastErr error

	result := varPattern.ReplaceAllStringFunc(str, func(match string) string {
		submatches := varPattern.FindStringSubmatch(match)
		if len(submatches) < 3 {
			lastErr = fmt.Errorf("invalid variable pattern: %s", match)
			return match
		}

		value, err := s.lookup(submatches[1], submatches[2])
		if err != nil {
			lastErr = err
			return match
		}
		if text, ok := value.(string); ok {
			return fmt.Sprintf("%q", text)
		}
		return fmt.Sprintf("%v", value)
	})

	if lastErr != nil {
		return "", lastErr
	}
	return result, nil
}

func (s *VariableSubstitutor) lookup(kind, path string) (any, error) {
	if kind == "vars" {
		return lookupVar(s.vars, path)
	}
	if s.secrets == nil {
		return nil, fmt.Errorf("secret %s referenced but no secret sources are configured", path)
	}
	return s.secrets.Resolve(path)
}

// lookupVar looks up a variable value by dotted path (e.g. "limits.qty").
func lookupVar(vars map[string]any, path string) (any, error) {
	parts := strings.Split(path, ".")
	current := any(vars)

	for i, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("variable path %s: cannot access %s (not a map)", path, strings.Join(parts[:i+1], "."))
		}
		value, exists := m[part]
		if !exists {
			return nil, fmt.Errorf("variable not found: %s", path)
		}
		current = value
	}

	switch v := current.(type) {
	case string, bool, int, int64, uint64, float64:
		return v, nil
	default:
		val := reflect.ValueOf(v)
		switch val.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return val.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return val.Uint(), nil
		case reflect.Float32, reflect.Float64:
			return val.Float(), nil
		}
		return nil, fmt.Errorf("variable %s has unsupported type %T", path, v)
	}
}
