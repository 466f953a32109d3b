package config_test

import (
	"testing"
	"time"

	"github.com/salesops/crm-dashboard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ANALYTICS_TIMEZONE", "UTC")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 50, cfg.CRM.PageSize)
	assert.Equal(t, 35, cfg.CRM.MaxPages)
	assert.Equal(t, 40, cfg.CRM.MaxPagesActivities)
	assert.Equal(t, 400, cfg.CRM.PageDelayMs)
	assert.Equal(t, 2000, cfg.CRM.RateLimitDelayMs)
	assert.Equal(t, 1500, cfg.CRM.QueryLimitDelayMs)
	assert.Equal(t, 500, cfg.Sync.BatchSize)
	assert.Equal(t, 90, cfg.Sync.ActivityLookbackDays)
	assert.Equal(t, 10*time.Minute, cfg.Sync.TimeoutDuration())
	assert.Equal(t, 3, cfg.Analytics.RetardThreshold)
	assert.Equal(t, 7, cfg.Analytics.CriticalThreshold)
	assert.True(t, cfg.Analytics.ExcludeWithReminder)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ANALYTICS_TIMEZONE", "UTC")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("CRM_PAGESIZE", "25")
	t.Setenv("ADMIN_API_KEY", "key-123")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CRM_WEBHOOK_URL", "https://crm.example.com/rest/1/abc/")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 25, cfg.CRM.PageSize)
	assert.Equal(t, "key-123", cfg.Auth.ApiKey)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "https://crm.example.com/rest/1/abc/", cfg.CRM.WebhookURL)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("ANALYTICS_TIMEZONE", "UTC")
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{"valid", func(c *config.Config) {}, false},
		{"bad driver", func(c *config.Config) { c.Database.Driver = "" }, true},
		{"bad timezone", func(c *config.Config) { c.Analytics.Timezone = "Mars/Olympus" }, true},
		{"zero page size", func(c *config.Config) { c.CRM.PageSize = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Database:  config.DatabaseConfig{Driver: "sqlite"},
				CRM:       config.CRMConfig{PageSize: 50},
				Analytics: config.AnalyticsConfig{Timezone: "UTC"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAnalyticsConfig_Settings(t *testing.T) {
	a := config.AnalyticsConfig{
		Timezone:             "UTC",
		CorporateSuffix:      "ACME",
		ManagerNames:         []string{"Sophie"},
		DepositRiskDays:      45,
		NeverContactedGraceS: 120,
		WindowDays:           30,
	}

	s := a.Settings()
	assert.Equal(t, time.UTC, s.Location)
	assert.Equal(t, "ACME", s.CorporateSuffix)
	assert.Equal(t, []string{"Sophie"}, s.ManagerNames)
	assert.Equal(t, 45, s.DepositRiskDays)
	assert.Equal(t, 7, s.QuoteSignedRiskDays, "unset values keep defaults")
	assert.Equal(t, 2*time.Minute, s.NeverContactedGrace)
	assert.Equal(t, 30, s.Model.WindowDays)
	assert.NotEmpty(t, s.ExcludedKeywords)
}

func TestAnalyticsConfig_DefaultOptions(t *testing.T) {
	a := config.AnalyticsConfig{RetardThreshold: 5, CriticalThreshold: 10, ExcludeWithReminder: false}

	o := a.DefaultOptions()
	assert.Equal(t, 5, o.RetardThreshold)
	assert.Equal(t, 10, o.CriticalThreshold)
	assert.False(t, o.ExcludeWithPendingReminder)
	assert.Equal(t, 15.0, o.ClosingTargetPercent)
}

func TestCRMConfig_ClientOptions(t *testing.T) {
	c := config.CRMConfig{PageSize: 25, PageDelayMs: 100, RateLimitDelayMs: 500}

	o := c.ClientOptions()
	assert.Equal(t, 25, o.PageSize)
	assert.Equal(t, 100*time.Millisecond, o.PageDelay)
	assert.Equal(t, 500*time.Millisecond, o.RateLimitDelay)
	assert.Equal(t, 35, o.MaxPages, "unset values keep client defaults")
	assert.Equal(t, 1500*time.Millisecond, o.QueryLimitDelay)
}
