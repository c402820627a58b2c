package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/rulegraph/internal/infrastructure/redaction"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTracker struct {
	values []string
}

func (r *recordingTracker) Track(value string) {
	r.values = append(r.values, value)
}

func TestResolver_Resolve(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "signing_key")
	require.NoError(t, os.WriteFile(secretFile, []byte("  file-secret-value\n"), 0o600))
	t.Setenv("RULEGRAPH_TEST_TOKEN", "env-secret-value")

	tracker := &recordingTracker{}
	resolver := NewResolver(&system.SecretsConfig{
		Local: map[string]string{"db_password": "local-secret-value"},
		Env: map[string]string{
			"api_token": "RULEGRAPH_TEST_TOKEN",
			"missing":   "RULEGRAPH_TEST_UNSET_VARIABLE",
		},
		Files: map[string]string{
			"signing_key": secretFile,
			"absent":      filepath.Join(t.TempDir(), "nope"),
		},
	}, tracker)

	tests := []struct {
		name       string
		secretName string
		want       string
		wantErr    bool
		notFound   bool
	}{
		{name: "local", secretName: "db_password", want: "local-secret-value"},
		{name: "env", secretName: "api_token", want: "env-secret-value"},
		{name: "file is trimmed", secretName: "signing_key", want: "file-secret-value"},
		{name: "env var unset", secretName: "missing", wantErr: true},
		{name: "file missing", secretName: "absent", wantErr: true},
		{name: "unknown", secretName: "nobody", wantErr: true, notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(tt.secretName)
			if tt.wantErr {
				require.Error(t, err)
				if tt.notFound {
					assert.ErrorIs(t, err, ErrNotFound)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, tracker.values, tt.want)
		})
	}
}

func TestResolver_CachesValues(t *testing.T) {
	t.Parallel()
	sources := &system.SecretsConfig{Local: map[string]string{"key": "first-value"}}
	tracker := &recordingTracker{}
	resolver := NewResolver(sources, tracker)

	got, err := resolver.Resolve("key")
	require.NoError(t, err)
	assert.Equal(t, "first-value", got)

	sources.Local["key"] = "second-value"
	got, err = resolver.Resolve("key")
	require.NoError(t, err)
	assert.Equal(t, "first-value", got)
	assert.Equal(t, []string{"first-value"}, tracker.values)
}

func TestResolver_NilSources(t *testing.T) {
	t.Parallel()
	_, err := NewResolver(nil, nil).Resolve("anything")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_TracksIntoRedactor(t *testing.T) {
	t.Parallel()
	r, err := redaction.New(redaction.Config{DisableGitleaks: true})
	require.NoError(t, err)

	resolver := NewResolver(&system.SecretsConfig{
		Local: map[string]string{"db_password": "hunter2-rulegraph"},
	}, r)
	_, err = resolver.Resolve("db_password")
	require.NoError(t, err)

	assert.NotContains(t, r.ScrubString("password is hunter2-rulegraph"), "hunter2-rulegraph")
}
