package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/salesops/crm-dashboard/internal/analytics"
	"github.com/salesops/crm-dashboard/internal/domain"
)

const dateLayout = "2006-01-02"

// dashboardQuery is the raw query string of the dashboard endpoints.
type dashboardQuery struct {
	Period              string   `validate:"omitempty,oneof=today yesterday week lastweek month lastmonth quarter year all custom"`
	Start               string   `validate:"omitempty,datetime=2006-01-02"`
	End                 string   `validate:"omitempty,datetime=2006-01-02"`
	Owners              []string `validate:"omitempty,max=50,dive,required,number"`
	RetardThreshold     string   `validate:"omitempty,number"`
	CriticalThreshold   string   `validate:"omitempty,number"`
	ExcludeWithReminder string   `validate:"omitempty,boolean"`
	ClosingTarget       string   `validate:"omitempty,numeric"`
	Date                string   `validate:"omitempty,datetime=2006-01-02"`
}

func readDashboardQuery(r *http.Request) dashboardQuery {
	q := r.URL.Query()
	return dashboardQuery{
		Period:              strings.ToLower(strings.TrimSpace(q.Get("period"))),
		Start:               strings.TrimSpace(q.Get("start")),
		End:                 strings.TrimSpace(q.Get("end")),
		Owners:              splitList(q["owners"]),
		RetardThreshold:     strings.TrimSpace(q.Get("retardThreshold")),
		CriticalThreshold:   strings.TrimSpace(q.Get("criticalThreshold")),
		ExcludeWithReminder: strings.TrimSpace(q.Get("excludeWithReminder")),
		ClosingTarget:       strings.TrimSpace(q.Get("closingTarget")),
		Date:                strings.TrimSpace(q.Get("date")),
	}
}

// splitList accepts both owners=1,2 and owners=1&owners=2.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// options overlays the validated query on the service defaults.
// Dates are read in loc so a day means a local calendar day.
func (q dashboardQuery) options(defaults analytics.Options, loc *time.Location) analytics.Options {
	opts := defaults
	if q.Period != "" {
		opts.Period = domain.PeriodPreset(q.Period)
	}
	if t, ok := parseDate(q.Start, loc); ok {
		opts.Start = &t
		if q.Period == "" {
			opts.Period = domain.PeriodCustom
		}
	}
	if t, ok := parseDate(q.End, loc); ok {
		opts.End = &t
		if q.Period == "" {
			opts.Period = domain.PeriodCustom
		}
	}
	if len(q.Owners) > 0 {
		opts.Owners = q.Owners
	}
	if n, err := strconv.Atoi(q.RetardThreshold); err == nil {
		opts.RetardThreshold = n
	}
	if n, err := strconv.Atoi(q.CriticalThreshold); err == nil {
		opts.CriticalThreshold = n
	}
	if b, err := strconv.ParseBool(q.ExcludeWithReminder); err == nil {
		opts.ExcludeWithPendingReminder = b
	}
	if f, err := strconv.ParseFloat(q.ClosingTarget, 64); err == nil {
		opts.ClosingTargetPercent = f
	}
	if t, ok := parseDate(q.Date, loc); ok {
		opts.Day = &t
	}
	return opts
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
