package secrets

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	// SourceEnvironment loads secrets from environment variables
	SourceEnvironment SecretSource = "environment"
	// SourceVault loads secrets from Azure Key Vault
	SourceVault SecretSource = "vault"
	// SourceAuto uses vault in staging/production, environment otherwise
	SourceAuto SecretSource = "auto"
)

// Key Vault secret names and their environment fallbacks.
const (
	SecretCRMWebhook       = "crm-webhook-url"
	SecretAPIKey           = "admin-api-key"
	SecretJWT              = "jwt-secret"
	SecretStorageConn      = "storage-connection-string"
	SecretDatabaseHost     = "POSTGRES-MAIN-HOST"
	SecretDatabaseUser     = "POSTGRES-MAIN-USER"
	SecretDatabasePassword = "POSTGRES-MAIN-PASSWORD"
)

// Getter is implemented by every secret backend.
type Getter interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
}

// Provider resolves secrets from the environment or from Key Vault.
type Provider struct {
	source      SecretSource
	backend     Getter
	logger      *zap.Logger
	environment string
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string // "development", "staging", "production"
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ResolveSource turns "auto" into a concrete source for the environment.
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a new secrets provider
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	provider := &Provider{
		source:      source,
		logger:      logger,
		environment: cfg.Environment,
	}

	switch source {
	case SourceEnvironment:
		provider.backend = envGetter{}
	case SourceVault:
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		vaultClient, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		provider.backend = vaultClient
	default:
		return nil, fmt.Errorf("unknown secret source: %s", source)
	}

	logger.Info("Secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)

	return provider, nil
}

// NewProviderWithBackend builds a provider over an arbitrary backend.
func NewProviderWithBackend(source SecretSource, backend Getter, logger *zap.Logger) *Provider {
	return &Provider{source: source, backend: backend, logger: logger}
}

// GetSecret retrieves a secret by name from the configured backend
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	if p.backend == nil {
		return "", fmt.Errorf("secret backend not initialized")
	}
	return p.backend.GetSecret(ctx, secretName)
}

// GetSecretOrEnv prefers an explicitly set environment variable, then the backend.
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if envValue := os.Getenv(envName); envValue != "" {
		p.logger.Debug("Using environment variable override",
			zap.String("env_name", envName),
		)
		return envValue, nil
	}
	return p.GetSecret(ctx, secretName)
}

// GetSecretOrEnvWithDefault combines GetSecretOrEnv with a default fallback
func (p *Provider) GetSecretOrEnvWithDefault(ctx context.Context, secretName, envName, defaultValue string) string {
	value, err := p.GetSecretOrEnv(ctx, secretName, envName)
	if err != nil {
		p.logger.Debug("Using default value",
			zap.String("secret_name", secretName),
			zap.String("env_name", envName),
		)
		return defaultValue
	}
	return value
}

// Source returns the current secret source
func (p *Provider) Source() SecretSource {
	return p.source
}

// IsVaultEnabled returns true if secrets are loaded from vault
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}

// envGetter reads the secret name as an environment variable.
type envGetter struct{}

func (envGetter) GetSecret(_ context.Context, secretName string) (string, error) {
	value := os.Getenv(secretName)
	if value == "" {
		return "", fmt.Errorf("environment variable '%s' not set", secretName)
	}
	return value, nil
}
