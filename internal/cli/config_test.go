package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/m365/rest"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := &Config{
		ClientID:     "client-id",
		ClientSecret: "secret",
		TenantID:     "tenant-id",
		Timezone:     "Europe/London",
		Scopes:       []string{"basic", "mailbox"},
	}
	require.NoError(t, SaveConfig(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("client_id = [broken"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestAccountRequiresClientID(t *testing.T) {
	cfg := &Config{}

	_, err := cfg.Account()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_id")
}

func TestAccountBuildsFromConfig(t *testing.T) {
	cfg := &Config{
		ClientID:  "client-id",
		TokenFile: filepath.Join(t.TempDir(), "token.json"),
		Timezone:  "Europe/London",
	}

	account, err := cfg.Account()
	require.NoError(t, err)

	assert.Equal(t, "Europe/London", account.Protocol.Timezone.String())
}

func TestFlowOrDefault(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "explicit flow wins", cfg: Config{Flow: "credentials"}, want: "credentials"},
		{name: "secret implies authorization", cfg: Config{ClientSecret: "s"}, want: string(rest.FlowAuthorization)},
		{name: "no secret implies public", cfg: Config{}, want: string(rest.FlowPublic)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flowOrDefault(&tt.cfg))
		})
	}
}
