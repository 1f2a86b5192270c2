package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadProperties(t *testing.T) {
	path := writeFile(t, "database_config.properties", `# comment
url=jdbc:postgresql://localhost:5432/app
username = admin
password:s3cr${et}
pool.size=1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "jdbc:postgresql://localhost:5432/app", cfg.URL)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "s3cr${et}", cfg.Password)
	assert.Equal(t, "1", cfg.Properties["pool.size"])
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "db.yaml", `
url: "sqlite::memory:"
username: ""
password: ""
extra: 42
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite::memory:", cfg.URL)
	assert.Equal(t, "42", cfg.Properties["extra"])
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "db.properties", "url=sqlite::memory:\nusername=file-user\npassword=file-pass\n")
	t.Setenv("DB_USERNAME", "env-user")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.Username)
	assert.Equal(t, "file-pass", cfg.Password)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.properties")
			},
		},
		{
			name: "missing url",
			path: func(t *testing.T) string {
				return writeFile(t, "db.properties", "username=a\npassword=b\n")
			},
			wantErr: ErrMissingKey,
		},
		{
			name: "malformed yaml",
			path: func(t *testing.T) string {
				return writeFile(t, "db.yml", "url: [unterminated\n")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path(t)
			cfg, err := Load(path)
			assert.Nil(t, cfg)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "expected *config.Error, got %T", err)
			assert.Equal(t, path, cfgErr.Path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
