// Package mapper converts CRM wire records into domain models.
//
// Empty strings become empty values or nil times, unparsable dates become nil
// and a missing currency defaults to the reporting currency.
package mapper

import (
	"strings"
	"time"

	"github.com/salesops/crm-dashboard/internal/crm"
	"github.com/salesops/crm-dashboard/internal/domain"
)

// Accepted CRM timestamp layouts, most specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006",
}

// ParseTime parses a CRM timestamp. Empty or unparsable values yield nil.
// Zone-less values are read in loc.
func ParseTime(v crm.Text, loc *time.Location) *time.Time {
	s := v.String()
	if s == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// Currency returns the upper-cased currency code, defaulting to EUR.
func Currency(v crm.Text) string {
	c := strings.ToUpper(v.String())
	if c == "" {
		return domain.ReportingCurrency
	}
	return c
}

// idOrEmpty treats "0" as a missing reference.
func idOrEmpty(v crm.Text) string {
	s := v.String()
	if s == "0" {
		return ""
	}
	return s
}

// Lead maps a crm.lead.list row.
func Lead(r *crm.LeadRecord, loc *time.Location) domain.Lead {
	currency := Currency(r.CurrencyID)
	opportunity := r.Opportunity.Float()
	return domain.Lead{
		ID:             r.ID.String(),
		Title:          r.Title.String(),
		Name:           r.Name.String(),
		StatusID:       r.StatusID.String(),
		SourceID:       r.SourceID.String(),
		OwnerID:        idOrEmpty(r.AssignedByID),
		DateCreated:    ParseTime(r.DateCreate, loc),
		DateModified:   ParseTime(r.DateModify, loc),
		DateClosed:     ParseTime(r.DateClosed, loc),
		LastActivityAt: ParseTime(r.LastActivityTime, loc),
		LastActivityBy: idOrEmpty(r.LastActivityBy),
		Opportunity:    opportunity,
		OpportunityEUR: domain.ToReportingCurrency(opportunity, currency),
		Currency:       currency,
		Phone:          crm.First(r.Phone),
		Email:          crm.First(r.Email),
	}
}

// Deal maps a crm.deal.list row. Pipeline and the commercial flag derive
// from the stage id.
func Deal(r *crm.DealRecord, loc *time.Location) domain.Deal {
	currency := Currency(r.CurrencyID)
	opportunity := r.Opportunity.Float()
	stage := domain.ParseStage(r.StageID.String())
	return domain.Deal{
		ID:             r.ID.String(),
		Title:          r.Title.String(),
		StageID:        r.StageID.String(),
		OwnerID:        idOrEmpty(r.AssignedByID),
		DateCreated:    ParseTime(r.DateCreate, loc),
		DateModified:   ParseTime(r.DateModify, loc),
		CloseDate:      ParseTime(r.CloseDate, loc),
		MovedAt:        ParseTime(r.MovedTime, loc),
		LastActivityAt: ParseTime(r.LastActivityTime, loc),
		LastActivityBy: idOrEmpty(r.LastActivityBy),
		Opportunity:    opportunity,
		OpportunityEUR: domain.ToReportingCurrency(opportunity, currency),
		Currency:       currency,
		LeadID:         idOrEmpty(r.LeadID),
		Pipeline:       stage.Pipeline,
		IsCommercial:   stage.IsCommercial(),
	}
}

// Quote maps a crm.quote.list row.
func Quote(r *crm.QuoteRecord, loc *time.Location) domain.Quote {
	currency := Currency(r.CurrencyID)
	opportunity := r.Opportunity.Float()
	return domain.Quote{
		ID:             r.ID.String(),
		Title:          r.Title.String(),
		StatusID:       r.StatusID.String(),
		OwnerID:        idOrEmpty(r.AssignedByID),
		DateCreated:    ParseTime(r.DateCreate, loc),
		DateModified:   ParseTime(r.DateModify, loc),
		CloseDate:      ParseTime(r.CloseDate, loc),
		Opportunity:    opportunity,
		OpportunityEUR: domain.ToReportingCurrency(opportunity, currency),
		Currency:       currency,
		DealID:         idOrEmpty(r.DealID),
		LeadID:         idOrEmpty(r.LeadID),
	}
}

// Activity maps a crm.activity.list row.
func Activity(r *crm.ActivityRecord, loc *time.Location) domain.Activity {
	return domain.Activity{
		ID:            r.ID.String(),
		OwnerTypeID:   r.OwnerTypeID.Int(),
		OwnerID:       r.OwnerID.String(),
		TypeID:        domain.ActivityType(r.TypeID.Int()),
		Subject:       r.Subject.String(),
		Completed:     bool(r.Completed),
		ResponsibleID: idOrEmpty(r.ResponsibleID),
		Created:       ParseTime(r.Created, loc),
		LastUpdated:   ParseTime(r.LastUpdated, loc),
		Deadline:      ParseTime(r.Deadline, loc),
		StartTime:     ParseTime(r.StartTime, loc),
		EndTime:       ParseTime(r.EndTime, loc),
		Direction:     r.Direction.Int(),
		ProviderID:    r.ProviderID.String(),
	}
}

// User maps a user.get row.
func User(r *crm.UserRecord) domain.User {
	return domain.User{
		ID:       r.ID.String(),
		Name:     r.Name.String(),
		LastName: r.LastName.String(),
		Email:    r.Email.String(),
		Active:   bool(r.Active),
	}
}

// Source maps a SOURCE status row.
func Source(r *crm.SourceRecord) domain.Source {
	return domain.Source{
		ID:   r.StatusID.String(),
		Name: r.Name.String(),
	}
}

// Map converts a slice of records, dropping rows without an id.
func Map[R any, M any](records []R, convert func(*R) M, id func(*M) string) []M {
	out := make([]M, 0, len(records))
	for i := range records {
		m := convert(&records[i])
		if id(&m) == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
