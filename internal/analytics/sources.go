package analytics

import (
	"sort"
	"strings"

	"github.com/salesops/crm-dashboard/internal/domain"
)

const (
	unknownSource = "Unknown"
	otherCategory = "Other"
)

// CategorizeSource buckets a source display name into a marketing category.
func CategorizeSource(name string, categories []SourceCategory) string {
	lower := strings.ToLower(name)
	for _, c := range categories {
		if containsAny(lower, c.Keywords) {
			return c.Name
		}
	}
	return otherCategory
}

// sourceRollups groups the filtered leads by source. A deal counts toward the
// source of its linked lead when at least one filtered lead has that source.
// The linked lead itself may fall outside the filter.
func (e *Engine) sourceRollups(idx *index, leads []leadRef, deals []dealRef) ([]domain.SourceStats, []domain.SourceStats) {
	counts := make(map[string]*funnelCounts)
	for _, r := range leads {
		key := r.lead.SourceID
		if key == "" {
			key = unknownSource
		}
		c, ok := counts[key]
		if !ok {
			c = &funnelCounts{}
			counts[key] = c
		}
		c.addLead(r.status)
	}

	for _, r := range deals {
		if !r.deal.HasLead() {
			continue
		}
		lead, ok := idx.leadByID[r.deal.LeadID]
		if !ok {
			continue
		}
		key := lead.SourceID
		if key == "" {
			key = unknownSource
		}
		if c, ok := counts[key]; ok {
			c.addDeal(r)
		}
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	// Category revenue is a float sum, so merge in a fixed order.
	sort.Strings(keys)

	sources := make([]domain.SourceStats, 0, len(counts))
	categories := make(map[string]*funnelCounts)
	for _, key := range keys {
		c := counts[key]
		name := unknownSource
		if key != unknownSource {
			name = idx.sourceName(key)
		}
		category := CategorizeSource(name, e.settings.SourceCategories)
		sources = append(sources, sourceStats(key, name, category, c))

		agg, ok := categories[category]
		if !ok {
			agg = &funnelCounts{}
			categories[category] = agg
		}
		agg.merge(c)
	}

	byCategory := make([]domain.SourceStats, 0, len(categories))
	for name, c := range categories {
		byCategory = append(byCategory, sourceStats(name, name, "", c))
	}

	sortSourceStats(sources)
	sortSourceStats(byCategory)
	return sources, byCategory
}

func (c *funnelCounts) merge(o *funnelCounts) {
	c.leads += o.leads
	c.converted += o.converted
	c.junk += o.junk
	c.deals += o.deals
	c.won += o.won
	c.deposit += o.deposit
	c.lost += o.lost
	c.expired += o.expired
	c.revenue += o.revenue
}

func sourceStats(key, name, category string, c *funnelCounts) domain.SourceStats {
	return domain.SourceStats{
		Key:                      key,
		Name:                     name,
		Category:                 category,
		Leads:                    c.leads,
		Converted:                c.converted,
		Junk:                     c.junk,
		Won:                      c.won,
		Deposit:                  c.deposit,
		SalesWithDeposit:         c.sales(),
		Revenue:                  c.revenue,
		ConversionRate:           rate(c.converted, c.leads),
		ClosingRate:              rate(c.sales(), c.converted),
		GlobalRateWithDeposit:    rate(c.sales(), c.leads),
		GlobalRateWithoutDeposit: rate(c.won, c.leads),
	}
}

func sortSourceStats(s []domain.SourceStats) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Leads != s[j].Leads {
			return s[i].Leads > s[j].Leads
		}
		return s[i].Key < s[j].Key
	})
}
