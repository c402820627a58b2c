package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Outcome_Precedence(t *testing.T) {
	tests := []struct {
		outcome    Outcome
		precedence int
	}{
		{OutcomeFailed, 3},
		{OutcomeErrored, 2},
		{OutcomeDependencyFailed, 1},
		{OutcomePassed, 0},
		{Outcome("unknown"), -1},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			assert.Equal(t, tt.precedence, tt.outcome.Precedence())
		})
	}
}

func Test_Outcome_IsFailure(t *testing.T) {
	assert.True(t, OutcomeFailed.IsFailure())
	assert.True(t, OutcomeErrored.IsFailure())
	assert.True(t, OutcomeDependencyFailed.IsFailure())
	assert.False(t, OutcomePassed.IsFailure())
	assert.True(t, OutcomePassed.IsPassed())
}

func Test_Outcome_Validate(t *testing.T) {
	for _, o := range []Outcome{OutcomePassed, OutcomeFailed, OutcomeErrored, OutcomeDependencyFailed} {
		t.Run(string(o), func(t *testing.T) {
			assert.NoError(t, o.Validate())
		})
	}

	assert.Error(t, Outcome("skipped").Validate())
}

func Test_AccessorErrorPolicy(t *testing.T) {
	p, err := ParseAccessorErrorPolicy("ignore")
	assert.NoError(t, err)
	assert.Equal(t, PolicyIgnore, p)

	_, err = ParseAccessorErrorPolicy("explode")
	assert.Error(t, err)

	assert.Equal(t, PolicyPropagate, PolicyInherit.Or(PolicyPropagate))
	assert.Equal(t, PolicyIgnore, PolicyIgnore.Or(PolicyPropagate))
}
