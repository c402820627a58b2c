package execution

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionResult_FinalizeSortsAndSummarizes(t *testing.T) {
	result := NewExecutionResult(&manifest.Manifest{Name: "shipping", Version: "1.0.0"})
	result.AddRuleResults(
		ValidationRuleResult{RuleID: "c", Index: 2, Outcome: values.OutcomeDependencyFailed},
		ValidationRuleResult{RuleID: "a", Index: 0, Outcome: values.OutcomePassed},
	)
	result.AddRuleResults(
		ValidationRuleResult{RuleID: "b", Index: 1, Outcome: values.OutcomeFailed},
		ValidationRuleResult{RuleID: "d", Index: 3, Outcome: values.OutcomeErrored},
	)

	result.Finalize()

	require.Len(t, result.Results, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, id, result.Results[i].RuleID)
	}
	assert.Equal(t, ResultSummary{
		TotalRules:            4,
		PassedRules:           1,
		FailedRules:           1,
		ErroredRules:          1,
		DependencyFailedRules: 1,
	}, result.Summary)
	assert.False(t, result.Passed())
	assert.False(t, result.RunID.IsZero())
	assert.Equal(t, "shipping", result.ManifestName)
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestExecutionResult_Passed(t *testing.T) {
	result := NewExecutionResult(&manifest.Manifest{})
	assert.True(t, result.Passed())

	result.AddRuleResults(ValidationRuleResult{RuleID: "a", Outcome: values.OutcomePassed})
	assert.True(t, result.Passed())
	assert.Len(t, result.ResultsFor("a"), 1)
	assert.Empty(t, result.ResultsFor("b"))
}

func TestGreedyTruncator(t *testing.T) {
	tr := &GreedyTruncator{}

	t.Run("under limit is untouched", func(t *testing.T) {
		data := map[string]any{"k": "v"}
		out, meta, err := tr.Truncate(data, 100)
		require.NoError(t, err)
		assert.Nil(t, meta)
		assert.Equal(t, data, out)
	})

	t.Run("zero limit disables truncation", func(t *testing.T) {
		data := map[string]any{"k": strings.Repeat("x", 500)}
		out, meta, err := tr.Truncate(data, 0)
		require.NoError(t, err)
		assert.Nil(t, meta)
		assert.Equal(t, data, out)
	})

	t.Run("large string is cut", func(t *testing.T) {
		data := map[string]any{"big": strings.Repeat("x", 500), "small": "ok"}
		out, meta, err := tr.Truncate(data, 100)
		require.NoError(t, err)
		require.NotNil(t, meta)
		assert.True(t, meta.Truncated)
		assert.Equal(t, 100, meta.TruncatedAt)
		assert.Greater(t, meta.OriginalSize, 500)
		assert.Contains(t, out["big"], "[TRUNCATED]")
		assert.Equal(t, "ok", out["small"])
		assert.Len(t, data["big"], 500, "input must not be mutated")
	})

	t.Run("large structure is replaced", func(t *testing.T) {
		items := make([]any, 100)
		for i := range items {
			items[i] = "item"
		}
		out, meta, err := tr.Truncate(map[string]any{"list": items}, 100)
		require.NoError(t, err)
		require.NotNil(t, meta)
		replaced, ok := out["list"].(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "value exceeded size limit", replaced["_truncated"])
	})

	t.Run("cuts on rune boundaries", func(t *testing.T) {
		out, meta, err := tr.Truncate(map[string]any{"text": strings.Repeat("é", 200)}, 102)
		require.NoError(t, err)
		require.NotNil(t, meta)
		text, ok := out["text"].(string)
		require.True(t, ok)
		assert.True(t, utf8.ValidString(text))
		assert.True(t, strings.HasSuffix(text, "[TRUNCATED] ..."))
	})

	t.Run("deterministic", func(t *testing.T) {
		data := map[string]any{
			"a": strings.Repeat("a", 300),
			"b": strings.Repeat("b", 300),
			"c": strings.Repeat("c", 300),
		}
		first, _, err := tr.Truncate(data, 400)
		require.NoError(t, err)
		for range 10 {
			again, _, err := tr.Truncate(data, 400)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}
