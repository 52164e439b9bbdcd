package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, "http://localhost:5000", cfg.Remote.BaseURL)
	assert.Zero(t, cfg.Remote.Timeout)
	assert.Equal(t, "pdfinsight_session", cfg.Session.CookieName)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes())
	assert.Equal(t, 2*time.Second, cfg.Server.RefreshInterval)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
remote:
  base_url: https://pdfbot.example.com
  timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://pdfbot.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
}

func TestLoad_Env(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PDFINSIGHT_REMOTE_BASE_URL", "http://remote:7000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://remote:7000", cfg.Remote.BaseURL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg: Config{
				Remote:  RemoteConfig{BaseURL: "http://x"},
				Session: SessionConfig{CookieName: "s"},
			},
		},
		{
			name: "blank base url",
			cfg: Config{
				Remote:  RemoteConfig{BaseURL: "  "},
				Session: SessionConfig{CookieName: "s"},
			},
			wantErr: true,
		},
		{
			name: "negative timeout",
			cfg: Config{
				Remote:  RemoteConfig{BaseURL: "http://x", Timeout: -time.Second},
				Session: SessionConfig{CookieName: "s"},
			},
			wantErr: true,
		},
		{
			name: "missing cookie name",
			cfg: Config{
				Remote: RemoteConfig{BaseURL: "http://x"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory for the duration of the test and restores it after.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
