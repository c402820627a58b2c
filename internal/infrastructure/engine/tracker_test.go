package engine

import (
	"context"
	"testing"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/rules"
	"github.com/reglet-dev/rulegraph/internal/domain/services"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
	"github.com/reglet-dev/rulegraph/internal/domain/valuetree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackerFor(t *testing.T, root *manifest.Node) (*Tracker, map[string]*execution.ExecutableRule) {
	t.Helper()
	tree, err := valuetree.NewBuilder().Build(root, 1)
	require.NoError(t, err)
	flat, err := execution.Flatten(tree)
	require.NoError(t, err)
	graph, err := services.NewCycleGuard(services.NewDependencyResolver()).Resolve(tree, flat)
	require.NoError(t, err)

	byID := make(map[string]*execution.ExecutableRule, len(flat))
	for _, r := range flat {
		byID[r.Declaration.ID] = r
	}
	return NewTracker(graph), byID
}

func finish(t *testing.T, tr *Tracker, rule *execution.ExecutableRule, res rules.RuleResult) {
	t.Helper()
	require.NoError(t, rule.SetResult(res))
	require.NoError(t, tr.RecordResult(rule))
}

func chainManifest() *manifest.Node {
	root := &manifest.Node{ID: "doc"}
	root.Rules = []*manifest.Rule{
		mkRule("rule1", fixed(values.OutcomePassed, nil), on(root, "rule2")),
		mkRule("rule2", fixed(values.OutcomePassed, nil), on(root, "rule3")),
		mkRule("rule3", fixed(values.OutcomePassed, nil)),
		mkRule("solo", fixed(values.OutcomePassed, nil)),
	}
	return root
}

func ids(rs []*execution.ExecutableRule) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Declaration.ID
	}
	return out
}

func TestTracker_ZeroDependencyRulesAreReadyFirst(t *testing.T) {
	t.Parallel()
	tr, _ := trackerFor(t, chainManifest())

	assert.Equal(t, []string{"rule3", "solo"}, ids(tr.ExecutableRules()))
	assert.Empty(t, tr.DependencyFailedRules())
}

func TestTracker_ReadyAfterDependencyPasses(t *testing.T) {
	t.Parallel()
	tr, r := trackerFor(t, chainManifest())

	finish(t, tr, r["rule3"], rules.Pass(nil))
	assert.Equal(t, []string{"rule2", "solo"}, ids(tr.ExecutableRules()))

	finish(t, tr, r["rule2"], rules.Pass(nil))
	finish(t, tr, r["solo"], rules.Pass(nil))
	assert.Equal(t, []string{"rule1"}, ids(tr.ExecutableRules()))
}

func TestTracker_DependencyFailureIsTransitive(t *testing.T) {
	t.Parallel()
	tr, r := trackerFor(t, chainManifest())

	finish(t, tr, r["rule3"], rules.Fail(nil))

	assert.Equal(t, []string{"solo"}, ids(tr.ExecutableRules()))
	assert.Equal(t, []string{"rule1", "rule2"}, ids(tr.DependencyFailedRules()))
}

func TestTracker_RecordResult(t *testing.T) {
	t.Parallel()
	tr, r := trackerFor(t, chainManifest())

	assert.ErrorIs(t, tr.RecordResult(r["solo"]), ErrNoResult)

	other, _ := trackerFor(t, chainManifest())
	finish(t, other, other.All()[0].Rule, rules.Pass(nil))
	assert.ErrorIs(t, tr.RecordResult(other.All()[0].Rule), ErrUnknownRule)

	finish(t, tr, r["solo"], rules.Fail(nil))
	require.NoError(t, tr.RecordResult(r["solo"]))
	outcome, ok := tr.Outcome(r["solo"])
	require.True(t, ok)
	assert.Equal(t, values.OutcomeFailed, outcome)
}

func TestTracker_UnreadableValuesAreNeverReady(t *testing.T) {
	t.Parallel()
	root := &manifest.Node{ID: "doc", Children: []*manifest.Node{
		{
			ID:       "broken",
			Accessor: func(any) (any, error) { return nil, errRead },
			Rules:    []*manifest.Rule{mkRule("on-error", fixed(values.OutcomePassed, nil))},
		},
		{
			ID:                  "skipped",
			AccessorErrorPolicy: values.PolicyIgnore,
			Accessor:            func(any) (any, error) { return nil, errRead },
			Rules:               []*manifest.Rule{mkRule("on-ignored", fixed(values.OutcomePassed, nil))},
		},
	}}
	tr, _ := trackerFor(t, root)

	assert.Empty(t, tr.ExecutableRules())
}

func TestTracker_IgnoredDependencyLeavesDependentWithoutResult(t *testing.T) {
	t.Parallel()
	skipped := &manifest.Node{
		ID:                  "skipped",
		AccessorErrorPolicy: values.PolicyIgnore,
		Accessor:            func(any) (any, error) { return nil, errRead },
		Rules:               []*manifest.Rule{mkRule("on-ignored", fixed(values.OutcomePassed, nil))},
	}
	readable := &manifest.Node{
		ID:       "readable",
		Accessor: func(p any) (any, error) { return p, nil },
	}
	readable.Rules = []*manifest.Rule{mkRule("needs-ignored", fixed(values.OutcomePassed, nil), on(skipped, "on-ignored"))}
	root := &manifest.Node{ID: "doc", Children: []*manifest.Node{skipped, readable}}

	tr, _ := trackerFor(t, root)
	assert.Empty(t, tr.ExecutableRules())
	assert.Empty(t, tr.DependencyFailedRules())

	result, err := newTestEngine(t, DefaultExecutionConfig()).
		Validate(context.Background(), &manifest.Manifest{Root: root}, 1)
	require.NoError(t, err)
	assert.Empty(t, result.Results)
}

func TestInvoker_CancelledContextSkipsLogic(t *testing.T) {
	t.Parallel()
	called := false
	root := &manifest.Node{ID: "doc", Rules: []*manifest.Rule{
		mkRule("a", rules.Func(func(context.Context, any, rules.RuleContext) (rules.RuleResult, error) {
			called = true
			return rules.Pass(nil), nil
		})),
	}}
	tr, r := trackerFor(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewInvoker(nil).Invoke(ctx, r["a"])
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.False(t, r["a"].HasResult())
	assert.Len(t, tr.ExecutableRules(), 1)
}

func TestInvoker_PassesValueParentAndContext(t *testing.T) {
	t.Parallel()
	type box struct{ Size int }
	var got struct {
		value, parent any
		rc            rules.RuleContext
	}
	child := &manifest.Node{
		ID:       "size",
		Type:     "Size",
		Accessor: func(p any) (any, error) { return p.(*box).Size, nil },
		Rules: []*manifest.Rule{{ID: "positive", Logic: rules.ParentFunc(
			func(_ context.Context, value, parent any, rc rules.RuleContext) (rules.RuleResult, error) {
				got.value, got.parent, got.rc = value, parent, rc
				return rules.Pass(map[string]any{"size": value}), nil
			})}},
	}
	root := &manifest.Node{ID: "box", Type: "Box", Children: []*manifest.Node{child}}
	b := &box{Size: 3}
	tree, err := valuetree.NewBuilder().Build(root, b)
	require.NoError(t, err)
	flat, err := execution.Flatten(tree)
	require.NoError(t, err)

	res, err := NewInvoker(nil).Invoke(context.Background(), flat[0])
	require.NoError(t, err)

	assert.Equal(t, 3, got.value)
	assert.Same(t, b, got.parent)
	assert.Equal(t, "positive", got.rc.RuleID)
	assert.Equal(t, "Size", got.rc.ValidatedType)
	require.Len(t, got.rc.Ancestors, 1)
	assert.Equal(t, values.OutcomePassed, res.Outcome)
	assert.Equal(t, 3, res.Data["size"])
	assert.Equal(t, "$.size", res.Path)
	assert.False(t, flat[0].HasResult(), "invoker does not store results")
}
