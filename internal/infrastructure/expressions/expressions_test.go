package expressions

import (
	"context"
	"strings"
	"testing"

	"github.com/reglet-dev/rulegraph/internal/domain/rules"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprRule(t *testing.T) {
	t.Parallel()
	cache := NewCache()
	rc := rules.RuleContext{RuleID: "qty", ValidatedType: "Line", Path: "$.lines[0]"}

	tests := []struct {
		name    string
		source  string
		value   any
		parent  any
		outcome values.Outcome
		wantErr bool
	}{
		{"passes", "value.qty > 0", map[string]any{"qty": 2}, nil, values.OutcomePassed, false},
		{"fails", "value.qty > 0", map[string]any{"qty": 0}, nil, values.OutcomeFailed, false},
		{"uses parent", "value.qty <= parent.limit", map[string]any{"qty": 2}, map[string]any{"limit": 1}, values.OutcomeFailed, false},
		{"uses context", `type == "Line" && rule == "qty" && path startsWith "$.lines"`, nil, nil, values.OutcomePassed, false},
		{"nil check", "value == nil", nil, nil, values.OutcomePassed, false},
		{"runtime error", "value.qty > 0", 42, nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewExprRule(cache, tt.source)
			require.NoError(t, err)

			res, err := rule.CheckWithParent(context.Background(), tt.value, tt.parent, rc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.source, res.Data["expression"])
		})
	}
}

func TestExprRule_CompileErrors(t *testing.T) {
	t.Parallel()
	cache := NewCache()

	_, err := NewExprRule(cache, "value.qty +")
	assert.Error(t, err)

	_, err = NewExprRule(cache, `"not a bool"`)
	assert.Error(t, err, "rule expressions must be boolean")

	_, err = NewExprRule(cache, strings.Repeat("a", MaxExpressionLength+1))
	assert.ErrorContains(t, err, "too long")

	deep := strings.Repeat("(", 60) + "1" + strings.Repeat(" + 1)", 60) + " > 0"
	_, err = NewExprRule(cache, deep)
	assert.Error(t, err, "AST node limit")
}

func TestCache_ReusesPrograms(t *testing.T) {
	t.Parallel()
	cache := NewCache()

	a, err := NewExprRule(cache, "value > 1")
	require.NoError(t, err)
	b, err := NewExprRule(cache, "value > 1")
	require.NoError(t, err)
	assert.Same(t, a.program, b.program)
	assert.Equal(t, 1, cache.Len())

	_, err = NewPredicate(cache, "value > 1")
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len(), "kinds are cached separately")
}

func TestAccessorPredicateIdentity(t *testing.T) {
	t.Parallel()
	cache := NewCache()
	order := map[string]any{"id": "o-1", "lines": []any{1, 2}, "kind": "digital"}

	access, err := NewAccessor(cache, "value.lines")
	require.NoError(t, err)
	got, err := access(order)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, got)

	_, err = access(7)
	assert.ErrorContains(t, err, "accessor")

	isDigital, err := NewPredicate(cache, `value.kind == "digital"`)
	require.NoError(t, err)
	assert.True(t, isDigital(order))
	assert.False(t, isDigital(map[string]any{"kind": "physical"}))
	assert.False(t, isDigital(7), "evaluation errors do not match")

	identity, err := NewIdentity(cache, "value.id")
	require.NoError(t, err)
	assert.Equal(t, "o-1", identity(order))
	assert.Nil(t, identity(7))
}
