package secrets_test

import (
	"context"
	"errors"
	"testing"

	"github.com/salesops/crm-dashboard/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapBackend map[string]string

func (m mapBackend) GetSecret(_ context.Context, name string) (string, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		source secrets.SecretSource
		env    string
		want   secrets.SecretSource
	}{
		{secrets.SourceAuto, "development", secrets.SourceEnvironment},
		{secrets.SourceAuto, "", secrets.SourceEnvironment},
		{secrets.SourceAuto, "production", secrets.SourceVault},
		{secrets.SourceAuto, "staging", secrets.SourceVault},
		{secrets.SourceEnvironment, "production", secrets.SourceEnvironment},
	}
	for _, tt := range tests {
		t.Run(string(tt.source)+"/"+tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, secrets.ResolveSource(tt.source, tt.env))
		})
	}
}

func TestProvider_Environment(t *testing.T) {
	t.Setenv("CRM_DASHBOARD_TEST_SECRET", "value")

	p, err := secrets.NewProvider(&secrets.ProviderConfig{Source: secrets.SourceEnvironment}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsVaultEnabled())

	v, err := p.GetSecret(context.Background(), "CRM_DASHBOARD_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = p.GetSecret(context.Background(), "CRM_DASHBOARD_MISSING_SECRET")
	assert.Error(t, err)
}

func TestProvider_VaultRequiresName(t *testing.T) {
	_, err := secrets.NewProvider(&secrets.ProviderConfig{Source: secrets.SourceVault}, zap.NewNop())
	assert.Error(t, err)
}

func TestProvider_GetSecretOrEnv(t *testing.T) {
	backend := mapBackend{secrets.SecretAPIKey: "from-vault"}
	p := secrets.NewProviderWithBackend(secrets.SourceVault, backend, zap.NewNop())
	ctx := context.Background()

	v, err := p.GetSecretOrEnv(ctx, secrets.SecretAPIKey, "CRM_DASHBOARD_TEST_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "from-vault", v)

	t.Setenv("CRM_DASHBOARD_TEST_API_KEY", "from-env")
	v, err = p.GetSecretOrEnv(ctx, secrets.SecretAPIKey, "CRM_DASHBOARD_TEST_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v, "an explicit environment variable wins")

	assert.Equal(t, "fallback", p.GetSecretOrEnvWithDefault(ctx, secrets.SecretJWT, "CRM_DASHBOARD_UNSET", "fallback"))
}
