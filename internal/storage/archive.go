package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/salesops/crm-dashboard/internal/domain"
)

const reportPrefix = "reports/"

// ReportArchive stores computed dashboard reports as JSON objects keyed
// reports/<yyyy-mm-dd>/<uuid>.json.
type ReportArchive struct {
	store Storage
	loc   *time.Location
}

// NewReportArchive archives into store, dating keys in loc.
func NewReportArchive(store Storage, loc *time.Location) *ReportArchive {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportArchive{store: store, loc: loc}
}

// Save writes the report and returns its key.
func (a *ReportArchive) Save(ctx context.Context, report *domain.Report) (string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	key := path.Join(reportPrefix+report.GeneratedAt.In(a.loc).Format("2006-01-02"), uuid.NewString()+".json")
	if _, err := a.store.Put(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		return "", fmt.Errorf("failed to store report: %w", err)
	}
	return key, nil
}

// Load reads an archived report.
func (a *ReportArchive) Load(ctx context.Context, key string) (*domain.Report, error) {
	rc, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var report domain.Report
	if err := json.NewDecoder(rc).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", key, err)
	}
	return &report, nil
}

// List returns the report keys archived on a day.
func (a *ReportArchive) List(ctx context.Context, day time.Time) ([]string, error) {
	return a.store.List(ctx, reportPrefix+day.In(a.loc).Format("2006-01-02")+"/")
}
