package cliconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	contoso  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	fabrikam = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(PathEnv, filepath.Join(t.TempDir(), "config.json"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Tenants)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	t.Setenv(PathEnv, path)

	cfg := &CLIConfig{}
	require.NoError(t, cfg.AddTenant("AzureCloud", "contoso", contoso))
	require.NoError(t, cfg.SetDefaultTenant("AzureCloud", "contoso"))
	require.NoError(t, Save(cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv(PathEnv, path)
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))

	_, err := Load()
	assert.ErrorContains(t, err, "decoding config file")
}

func TestAddTenant_Validation(t *testing.T) {
	cfg := &CLIConfig{}
	assert.Error(t, cfg.AddTenant("AzureCloud", "", contoso))
	assert.Error(t, cfg.AddTenant("AzureCloud", fabrikam.String(), contoso))
	assert.Error(t, cfg.AddTenant("AzureCloud", "nil", uuid.Nil))
}

func TestResolveTenant(t *testing.T) {
	cfg := &CLIConfig{}
	require.NoError(t, cfg.AddTenant("AzureCloud", "contoso", contoso))

	tests := []struct {
		name    string
		env     string
		ref     string
		want    uuid.UUID
		wantErr error
	}{
		{name: "alias", env: "AzureCloud", ref: "contoso", want: contoso},
		{name: "environment is case-insensitive", env: "azurecloud", ref: "contoso", want: contoso},
		{name: "raw id", env: "AzureCloud", ref: fabrikam.String(), want: fabrikam},
		{name: "no default", env: "AzureCloud", ref: "", want: uuid.Nil},
		{name: "alias of other environment", env: "AzureChinaCloud", ref: "contoso", wantErr: ErrTenantNotFound},
		{name: "unknown alias", env: "AzureCloud", ref: "tailspin", wantErr: ErrTenantNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.ResolveTenant(tt.env, tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultTenant(t *testing.T) {
	cfg := &CLIConfig{}
	require.NoError(t, cfg.AddTenant("AzureCloud", "contoso", contoso))
	require.NoError(t, cfg.AddTenant("AzureCloud", "fabrikam", fabrikam))

	assert.ErrorIs(t, cfg.SetDefaultTenant("AzureCloud", "tailspin"), ErrTenantNotFound)

	require.NoError(t, cfg.SetDefaultTenant("AzureCloud", "fabrikam"))
	got, err := cfg.ResolveTenant("AzureCloud", "")
	require.NoError(t, err)
	assert.Equal(t, fabrikam, got)

	assert.Equal(t, []TenantAlias{
		{Alias: "contoso", ID: contoso},
		{Alias: "fabrikam", ID: fabrikam, Default: true},
	}, cfg.ListTenants("AzureCloud"))

	require.NoError(t, cfg.RemoveTenant("AzureCloud", "fabrikam"))
	got, err = cfg.ResolveTenant("AzureCloud", "")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got, "removing the default alias resets the default")

	assert.ErrorIs(t, cfg.RemoveTenant("AzureCloud", "fabrikam"), ErrTenantNotFound)

	require.NoError(t, cfg.SetDefaultTenant("AzureCloud", ""))
	assert.Len(t, cfg.ListTenants("AzureCloud"), 1)
}
