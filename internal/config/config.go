package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/salesops/crm-dashboard/internal/analytics"
	"github.com/salesops/crm-dashboard/internal/crm"
	"github.com/salesops/crm-dashboard/internal/secrets"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	CRM       CRMConfig
	Sync      SyncConfig
	Analytics AnalyticsConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite"
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// CRMConfig holds the CRM REST webhook settings used by the sync client
type CRMConfig struct {
	// WebhookURL is the inbound webhook base URL, e.g. https://example.bitrix24.fr/rest/1/token/
	WebhookURL string
	// PageSize is the number of records the CRM returns per list call
	PageSize int
	// MaxPages bounds the number of list calls per entity and run
	MaxPages int
	// MaxPagesActivities bounds the list calls for activities
	MaxPagesActivities int
	// PageDelayMs is the pause between two list calls
	PageDelayMs int
	// RateLimitDelayMs is the wait after an HTTP 429
	RateLimitDelayMs int
	// QueryLimitDelayMs is the wait after a QUERY_LIMIT_EXCEEDED error body
	QueryLimitDelayMs int
	// MaxRetries is the number of retries for a single list call
	MaxRetries int
	// RequestTimeout is the per-request timeout (seconds)
	RequestTimeout int
}

// SyncConfig holds the periodic CRM synchronization settings
type SyncConfig struct {
	Enabled bool
	// Cron is a six-field cron expression (seconds first)
	Cron string
	// Timeout bounds a whole run (seconds)
	Timeout int
	// RunOnStartup triggers a run shortly after the server starts
	RunOnStartup bool
	// ActivityLookbackDays limits activities to those created recently
	ActivityLookbackDays int
	// BatchSize is the number of rows per upsert statement
	BatchSize int
	// ArchiveReports stores the computed report after each successful run
	ArchiveReports bool
}

// AnalyticsConfig holds the engine settings and request defaults
type AnalyticsConfig struct {
	Timezone              string
	CorporateSuffix       string
	ExcludedKeywords      []string
	NonCommercialNames    []string
	ManagerNames          []string
	RetardThreshold       int
	CriticalThreshold     int
	ExcludeWithReminder   bool
	ClosingTargetPercent  float64
	QuoteExpiryDays       int
	QuoteSignedRiskDays   int
	DepositRiskDays       int
	NeverContactedGraceS  int
	TopCloserMinConverted int
	TopCloserLimit        int
	WindowDays            int
	CostPerLead           float64
}

// AuthConfig holds API key and bearer token settings
type AuthConfig struct {
	// ApiKey is the admin key accepted in the X-API-Key header
	ApiKey string
	// JWTSecret signs and verifies HS256 bearer tokens
	JWTSecret string
	// JWTIssuer is the expected "iss" claim. Empty disables the check.
	JWTIssuer string
}

type StorageConfig struct {
	// Mode is "local" or "cloud"
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS requests
	// Use "*" to allow all origins (not recommended for production)
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	// FrameOptions sets the X-Frame-Options header (DENY, SAMEORIGIN, or empty to disable)
	FrameOptions       string
	ContentTypeNosniff bool
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the limit for unauthenticated requests (per IP)
	RequestsPerMinute int
	// RequestsPerMinuteAuth is the limit for authenticated requests (per caller)
	RequestsPerMinuteAuth int
	// SyncRequestsPerMinute limits manual sync triggers per caller
	SyncRequestsPerMinute int
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// TimeoutDuration returns the sync run timeout as duration
func (s *SyncConfig) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// ClientOptions converts the CRM settings to client options. Zero values
// keep the client defaults.
func (c *CRMConfig) ClientOptions() crm.Options {
	o := crm.DefaultOptions()
	if c.PageSize > 0 {
		o.PageSize = c.PageSize
	}
	if c.MaxPages > 0 {
		o.MaxPages = c.MaxPages
	}
	if c.MaxPagesActivities > 0 {
		o.MaxPagesActivities = c.MaxPagesActivities
	}
	if c.PageDelayMs > 0 {
		o.PageDelay = time.Duration(c.PageDelayMs) * time.Millisecond
	}
	if c.RateLimitDelayMs > 0 {
		o.RateLimitDelay = time.Duration(c.RateLimitDelayMs) * time.Millisecond
	}
	if c.QueryLimitDelayMs > 0 {
		o.QueryLimitDelay = time.Duration(c.QueryLimitDelayMs) * time.Millisecond
	}
	if c.MaxRetries > 0 {
		o.MaxRetries = c.MaxRetries
	}
	if c.RequestTimeout > 0 {
		o.Timeout = time.Duration(c.RequestTimeout) * time.Second
	}
	return o
}

// Location resolves the configured timezone, falling back to UTC.
func (a *AnalyticsConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Settings builds the analytics engine settings from configuration.
// Unset values keep the engine defaults.
func (a *AnalyticsConfig) Settings() analytics.Settings {
	s := analytics.DefaultSettings()
	s.Location = a.Location()
	s.CorporateSuffix = a.CorporateSuffix
	if len(a.ExcludedKeywords) > 0 {
		s.ExcludedKeywords = a.ExcludedKeywords
	}
	s.NonCommercialNames = a.NonCommercialNames
	s.ManagerNames = a.ManagerNames
	if a.QuoteExpiryDays > 0 {
		s.QuoteExpiryDays = a.QuoteExpiryDays
	}
	if a.QuoteSignedRiskDays > 0 {
		s.QuoteSignedRiskDays = a.QuoteSignedRiskDays
	}
	if a.DepositRiskDays > 0 {
		s.DepositRiskDays = a.DepositRiskDays
	}
	if a.NeverContactedGraceS > 0 {
		s.NeverContactedGrace = time.Duration(a.NeverContactedGraceS) * time.Second
	}
	if a.TopCloserMinConverted > 0 {
		s.TopCloserMinConverted = a.TopCloserMinConverted
	}
	if a.TopCloserLimit > 0 {
		s.TopCloserLimit = a.TopCloserLimit
	}
	if a.WindowDays > 0 {
		s.Model.WindowDays = a.WindowDays
	}
	if a.CostPerLead > 0 {
		s.Model.CostPerLead = a.CostPerLead
	}
	return s
}

// DefaultOptions returns the request defaults from configuration.
func (a *AnalyticsConfig) DefaultOptions() analytics.Options {
	o := analytics.DefaultOptions()
	o.RetardThreshold = a.RetardThreshold
	o.CriticalThreshold = a.CriticalThreshold
	o.ExcludeWithPendingReminder = a.ExcludeWithReminder
	if a.ClosingTargetPercent > 0 {
		o.ClosingTargetPercent = a.ClosingTargetPercent
	}
	return o
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.ApiKey == "" {
		cfg.Auth.ApiKey = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	}
	if cfg.CRM.WebhookURL == "" {
		cfg.CRM.WebhookURL = v.GetString("CRM_WEBHOOK_URL")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Analytics.Timezone != "" {
		if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
			return fmt.Errorf("invalid analytics timezone %q: %w", c.Analytics.Timezone, err)
		}
	}
	if c.CRM.PageSize <= 0 {
		return fmt.Errorf("crm page size must be positive, got %d", c.CRM.PageSize)
	}
	return nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source
// In development (or when USE_AZURE_KEY_VAULT is not "true"), secrets come from env vars
// In staging/production with USE_AZURE_KEY_VAULT=true, secrets come from Azure Key Vault
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Azure Key Vault enabled for secrets",
		zap.String("environment", cfg.App.Environment),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider (USE_AZURE_KEY_VAULT=true requires valid vault): %w", err)
	}

	if err := applySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

// secretSource is the subset of the secrets provider used while loading config.
type secretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envVar string) (string, error)
}

func applySecrets(ctx context.Context, cfg *Config, provider secretSource) error {
	// Host, user and password come from the vault; the database name varies per environment
	if host, err := provider.GetSecretOrEnv(ctx, secrets.SecretDatabaseHost, "DATABASE_HOST"); err == nil && host != "" {
		cfg.Database.Host = host
	}
	if defaultDB := os.Getenv("DEFAULT_DATABASE"); defaultDB != "" {
		cfg.Database.Name = defaultDB
	}
	if user, err := provider.GetSecretOrEnv(ctx, secrets.SecretDatabaseUser, "DATABASE_USER"); err == nil && user != "" {
		cfg.Database.User = user
	}
	if password, err := provider.GetSecretOrEnv(ctx, secrets.SecretDatabasePassword, "DATABASE_PASSWORD"); err == nil && password != "" {
		cfg.Database.Password = password
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	webhook, err := provider.GetSecretOrEnv(ctx, secrets.SecretCRMWebhook, "CRM_WEBHOOK_URL")
	if err != nil {
		return fmt.Errorf("failed to load crm webhook url: %w", err)
	}
	cfg.CRM.WebhookURL = webhook

	if apiKey, err := provider.GetSecretOrEnv(ctx, secrets.SecretAPIKey, "ADMIN_API_KEY"); err == nil && apiKey != "" {
		cfg.Auth.ApiKey = apiKey
	}
	if jwtSecret, err := provider.GetSecretOrEnv(ctx, secrets.SecretJWT, "JWT_SECRET"); err == nil && jwtSecret != "" {
		cfg.Auth.JWTSecret = jwtSecret
	}
	if connStr, err := provider.GetSecretOrEnv(ctx, secrets.SecretStorageConn, "STORAGE_CLOUDCONNECTIONSTRING"); err == nil && connStr != "" {
		cfg.Storage.CloudConnectionString = connStr
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "CRM Dashboard")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "crm_dashboard")
	v.SetDefault("database.user", "crm")
	v.SetDefault("database.password", "crm_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.sqlitePath", "./crm_dashboard.db")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	// CRM client defaults
	v.SetDefault("crm.pageSize", 50)
	v.SetDefault("crm.maxPages", 35)
	v.SetDefault("crm.maxPagesActivities", 40)
	v.SetDefault("crm.pageDelayMs", 400)
	v.SetDefault("crm.rateLimitDelayMs", 2000)
	v.SetDefault("crm.queryLimitDelayMs", 1500)
	v.SetDefault("crm.maxRetries", 3)
	v.SetDefault("crm.requestTimeout", 30)

	// Sync defaults
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.cron", "0 */15 * * * *") // every 15 minutes
	v.SetDefault("sync.timeout", 600)
	v.SetDefault("sync.runOnStartup", true)
	v.SetDefault("sync.activityLookbackDays", 90)
	v.SetDefault("sync.batchSize", 500)
	v.SetDefault("sync.archiveReports", true)

	// Analytics defaults
	v.SetDefault("analytics.timezone", "Europe/Paris")
	v.SetDefault("analytics.excludedKeywords", []string{"bad lead", "admin", "test", "demo"})
	v.SetDefault("analytics.retardThreshold", analytics.DefaultRetardThreshold)
	v.SetDefault("analytics.criticalThreshold", analytics.DefaultCriticalThreshold)
	v.SetDefault("analytics.excludeWithReminder", true)
	v.SetDefault("analytics.closingTargetPercent", analytics.DefaultClosingTargetPercent)
	v.SetDefault("analytics.quoteExpiryDays", 30)
	v.SetDefault("analytics.quoteSignedRiskDays", 7)
	v.SetDefault("analytics.depositRiskDays", 30)
	v.SetDefault("analytics.neverContactedGraceS", 60)
	v.SetDefault("analytics.topCloserMinConverted", 10)
	v.SetDefault("analytics.topCloserLimit", 5)
	v.SetDefault("analytics.windowDays", 60)
	v.SetDefault("analytics.costPerLead", 6)

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300) // 5 minutes

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "reports")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults - secure by default
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000) // 1 year
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 120)
	v.SetDefault("rateLimit.syncRequestsPerMinute", 4)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})
}
