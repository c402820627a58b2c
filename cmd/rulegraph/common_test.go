package main

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFormats = []string{"table", "json", "yaml", "junit", "sarif"}

func TestCommonOptions_ApplyToContext(t *testing.T) {
	t.Parallel()

	t.Run("with timeout", func(t *testing.T) {
		t.Parallel()
		opts := CommonOptions{Timeout: 100 * time.Millisecond}
		ctx, cancel := opts.ApplyToContext(context.Background())
		defer cancel()

		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(100*time.Millisecond), deadline, 10*time.Millisecond)
	})

	t.Run("no timeout", func(t *testing.T) {
		t.Parallel()
		opts := CommonOptions{Timeout: 0}
		ctx, cancel := opts.ApplyToContext(context.Background())
		defer cancel()

		_, ok := ctx.Deadline()
		assert.False(t, ok)
	})
}

func TestCommonOptions_ValidateFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    CommonOptions
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid options",
			opts: CommonOptions{Format: "table"},
		},
		{
			name: "valid policy",
			opts: CommonOptions{Format: "json", OnAccessorError: "propagate"},
		},
		{
			name:    "invalid format",
			opts:    CommonOptions{Format: "xml"},
			wantErr: true,
			errMsg:  "invalid format",
		},
		{
			name:    "invalid policy",
			opts:    CommonOptions{Format: "table", OnAccessorError: "sometimes"},
			wantErr: true,
			errMsg:  "invalid --on-accessor-error",
		},
		{
			name:    "negative concurrency",
			opts:    CommonOptions{Format: "table", MaxConcurrency: -2},
			wantErr: true,
			errMsg:  "--max-concurrency cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.ValidateFlags(testFormats)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDefaultCommonOptions(t *testing.T) {
	t.Parallel()
	opts := DefaultCommonOptions()
	assert.Equal(t, 2*time.Minute, opts.Timeout)
	assert.Equal(t, "table", opts.Format)
	assert.False(t, opts.Parallel)
}

func TestLoadCommonOptions(t *testing.T) {
	t.Parallel()
	v := viper.New()
	cmd := &cobra.Command{Use: "test"}
	defaults := DefaultCommonOptions()
	defaults.RegisterFlags(cmd, v, "check")

	// Flag defaults
	opts := LoadCommonOptions(v, "check")
	assert.Equal(t, "table", opts.Format)
	assert.Equal(t, 2*time.Minute, opts.Timeout)

	// Changed flags beat defaults
	require.NoError(t, cmd.Flags().Set("max-depth", "3"))
	require.NoError(t, cmd.Flags().Set("parallel", "true"))
	opts = LoadCommonOptions(v, "check")
	assert.Equal(t, 3, opts.MaxDepth)
	assert.True(t, opts.Parallel)
}
