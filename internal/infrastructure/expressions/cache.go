// Package expressions compiles manifest expressions into rule logic,
// accessors and predicates using expr-lang.
package expressions

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Complexity limits applied to every expression.
const (
	MaxExpressionLength = 1000
	MaxASTNodes         = 100
)

// kind separates cache entries compiled with different options.
type kind string

const (
	kindRule     kind = "rule"
	kindAccessor kind = "accessor"
	kindBool     kind = "predicate"
)

// Cache holds compiled programs keyed by kind and source.
// Safe for concurrent use.
type Cache struct {
	programs map[string]*vm.Program
	mu       sync.RWMutex
}

// NewCache creates an empty program cache.
func NewCache() *Cache {
	return &Cache{programs: make(map[string]*vm.Program)}
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

// compile retrieves a cached program or compiles and caches a new one.
func (c *Cache) compile(k kind, source string) (*vm.Program, error) {
	if len(source) > MaxExpressionLength {
		return nil, fmt.Errorf("expression too long (max %d chars): %d chars", MaxExpressionLength, len(source))
	}
	key := string(k) + "\x00" + source

	// Optimistic path: most expressions are shared across nodes.
	c.mu.RLock()
	program, found := c.programs[key]
	c.mu.RUnlock()
	if found {
		return program, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the write lock.
	if program, found := c.programs[key]; found {
		return program, nil
	}

	program, err := expr.Compile(source, optionsFor(k)...)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	c.programs[key] = program
	return program, nil
}

func optionsFor(k kind) []expr.Option {
	opts := []expr.Option{expr.MaxNodes(MaxASTNodes)}
	switch k {
	case kindRule:
		opts = append(opts, expr.Env(ruleEnv{}), expr.AsBool())
	case kindBool:
		opts = append(opts, expr.Env(valueEnv{}), expr.AsBool())
	default:
		opts = append(opts, expr.Env(valueEnv{}))
	}
	return opts
}
