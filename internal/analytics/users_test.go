package analytics_test

import (
	"testing"

	"github.com/salesops/crm-dashboard/internal/analytics"
	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	u := &domain.User{Name: "Alice", LastName: "Martin ACME Travel"}
	assert.Equal(t, "Alice Martin Travel", analytics.DisplayName(u, "acme"))
	assert.Equal(t, "Alice Martin ACME Travel", analytics.DisplayName(u, ""))
	assert.Equal(t, "Bob", analytics.DisplayName(&domain.User{Name: "Bob"}, "acme"))
}

func TestClassifyUser(t *testing.T) {
	s := analytics.DefaultSettings()
	s.ManagerNames = []string{"Sophie"}
	s.NonCommercialNames = []string{"Accounting"}

	tests := []struct {
		name string
		want domain.UserType
	}{
		{"Alice Martin", domain.UserTypeCommercial},
		{"Sophie Laurent", domain.UserTypeManager},
		{"Accounting Team", domain.UserTypeNonCommercial},
		{"Demo User", domain.UserTypeExcluded},
		{"Site Admin", domain.UserTypeExcluded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analytics.ClassifyUser(tt.name, s))
		})
	}
}

func TestCategorizeSource(t *testing.T) {
	categories := analytics.DefaultSourceCategories()

	assert.Equal(t, "WhatsApp", analytics.CategorizeSource("WhatsApp campaign", categories))
	assert.Equal(t, "Facebook", analytics.CategorizeSource("Facebook Lead Ads", categories))
	assert.Equal(t, "Referral", analytics.CategorizeSource("Parrainage", categories))
	assert.Equal(t, "Other", analytics.CategorizeSource("Trade show", categories))
	assert.Equal(t, "Other", analytics.CategorizeSource("", categories))
}
