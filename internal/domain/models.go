package domain

import (
	"strings"
	"time"
)

// CRM owner entity type codes used by activities.
const (
	OwnerTypeLead = 1
	OwnerTypeDeal = 2
)

// Lead is a synchronized CRM lead.
type Lead struct {
	ID             string     `gorm:"type:varchar(32);primaryKey" json:"id"`
	Title          string     `gorm:"type:varchar(500)" json:"title,omitempty"`
	Name           string     `gorm:"type:varchar(255)" json:"name,omitempty"`
	StatusID       string     `gorm:"type:varchar(64);index" json:"statusId,omitempty"`
	SourceID       string     `gorm:"type:varchar(64);index" json:"sourceId,omitempty"`
	OwnerID        string     `gorm:"column:assigned_by_id;type:varchar(32);index" json:"ownerId,omitempty"`
	DateCreated    *time.Time `gorm:"column:date_create;index" json:"dateCreated,omitempty"`
	DateModified   *time.Time `gorm:"column:date_modify" json:"dateModified,omitempty"`
	DateClosed     *time.Time `gorm:"column:date_closed" json:"dateClosed,omitempty"`
	LastActivityAt *time.Time `gorm:"column:last_activity_time" json:"lastActivityAt,omitempty"`
	LastActivityBy string     `gorm:"type:varchar(32)" json:"lastActivityBy,omitempty"`
	Opportunity    float64    `json:"opportunity"`
	OpportunityEUR float64    `gorm:"column:opportunity_eur" json:"opportunityEur"`
	Currency       string     `gorm:"column:currency_id;type:varchar(8)" json:"currency,omitempty"`
	Phone          string     `gorm:"type:varchar(64)" json:"phone,omitempty"`
	Email          string     `gorm:"type:varchar(255)" json:"email,omitempty"`
	SyncedAt       time.Time  `gorm:"autoUpdateTime" json:"syncedAt"`
}

func (Lead) TableName() string { return "leads" }

// Status returns the classified lead status.
func (l *Lead) Status() LeadStatus {
	return ParseLeadStatus(l.StatusID)
}

// DisplayTitle returns the best available label for the lead.
func (l *Lead) DisplayTitle() string {
	if l.Title != "" {
		return l.Title
	}
	if l.Name != "" {
		return l.Name
	}
	return "Untitled"
}

// MatchName is the text used when reconciling orphan deals against leads.
func (l *Lead) MatchName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Title
}

// LastContact is the last activity timestamp when known, else the modification date.
func (l *Lead) LastContact() *time.Time {
	if l.LastActivityAt != nil {
		return l.LastActivityAt
	}
	return l.DateModified
}

// Amount returns the opportunity in the reporting currency.
func (l *Lead) Amount() float64 {
	return ToReportingCurrency(l.Opportunity, l.Currency)
}

// Deal is a synchronized CRM deal.
type Deal struct {
	ID             string     `gorm:"type:varchar(32);primaryKey" json:"id"`
	Title          string     `gorm:"type:varchar(500)" json:"title,omitempty"`
	StageID        string     `gorm:"type:varchar(64);index" json:"stageId,omitempty"`
	OwnerID        string     `gorm:"column:assigned_by_id;type:varchar(32);index" json:"ownerId,omitempty"`
	DateCreated    *time.Time `gorm:"column:date_create;index" json:"dateCreated,omitempty"`
	DateModified   *time.Time `gorm:"column:date_modify" json:"dateModified,omitempty"`
	CloseDate      *time.Time `gorm:"column:closedate" json:"closeDate,omitempty"`
	MovedAt        *time.Time `gorm:"column:moved_time" json:"movedAt,omitempty"`
	LastActivityAt *time.Time `gorm:"column:last_activity_time" json:"lastActivityAt,omitempty"`
	LastActivityBy string     `gorm:"type:varchar(32)" json:"lastActivityBy,omitempty"`
	Opportunity    float64    `json:"opportunity"`
	OpportunityEUR float64    `gorm:"column:opportunity_eur" json:"opportunityEur"`
	Currency       string     `gorm:"column:currency_id;type:varchar(8)" json:"currency,omitempty"`
	LeadID         string     `gorm:"type:varchar(32);index" json:"leadId,omitempty"`
	Pipeline       Pipeline   `gorm:"type:varchar(20)" json:"pipeline"`
	IsCommercial   bool       `json:"isCommercial"`
	SyncedAt       time.Time  `gorm:"autoUpdateTime" json:"syncedAt"`
}

func (Deal) TableName() string { return "deals" }

// Stage parses the stage id. Pipeline membership is always derived from the
// stage id, never from the stored Pipeline column.
func (d *Deal) Stage() Stage {
	return ParseStage(d.StageID)
}

// HasLead reports whether the deal references a source lead.
func (d *Deal) HasLead() bool {
	id := strings.TrimSpace(d.LeadID)
	return id != "" && id != "0"
}

// LastContact is the last activity timestamp when known, else the modification date.
func (d *Deal) LastContact() *time.Time {
	if d.LastActivityAt != nil {
		return d.LastActivityAt
	}
	return d.DateModified
}

// Amount returns the opportunity in the reporting currency.
func (d *Deal) Amount() float64 {
	return ToReportingCurrency(d.Opportunity, d.Currency)
}

// DisplayTitle returns the deal title or a placeholder.
func (d *Deal) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return "Untitled"
}

// ActivityType is the CRM activity type code.
type ActivityType int

const (
	ActivityTypeMeeting ActivityType = 1
	ActivityTypeCall    ActivityType = 2
	ActivityTypeTask    ActivityType = 3
	ActivityTypeEmail   ActivityType = 4
	ActivityTypeSMS     ActivityType = 6
)

// Activity is a synchronized CRM activity attached to a lead or a deal.
type Activity struct {
	ID            string       `gorm:"type:varchar(32);primaryKey" json:"id"`
	OwnerTypeID   int          `gorm:"index:idx_activities_owner" json:"ownerTypeId"`
	OwnerID       string       `gorm:"type:varchar(32);index:idx_activities_owner" json:"ownerId"`
	TypeID        ActivityType `json:"typeId"`
	Subject       string       `gorm:"type:varchar(500)" json:"subject,omitempty"`
	Completed     bool         `json:"completed"`
	ResponsibleID string       `gorm:"type:varchar(32);index" json:"responsibleId,omitempty"`
	Created       *time.Time   `gorm:"index" json:"created,omitempty"`
	LastUpdated   *time.Time   `json:"lastUpdated,omitempty"`
	Deadline      *time.Time   `json:"deadline,omitempty"`
	StartTime     *time.Time   `json:"startTime,omitempty"`
	EndTime       *time.Time   `json:"endTime,omitempty"`
	Direction     int          `json:"direction"`
	ProviderID    string       `gorm:"type:varchar(64)" json:"providerId,omitempty"`
	SyncedAt      time.Time    `gorm:"autoUpdateTime" json:"syncedAt"`
}

func (Activity) TableName() string { return "activities" }

// EffectiveDate is the deadline, else the start time. Nil means undated.
func (a *Activity) EffectiveDate() *time.Time {
	if a.Deadline != nil {
		return a.Deadline
	}
	return a.StartTime
}

// User is a synchronized CRM user. Only active users are synchronized.
type User struct {
	ID       string    `gorm:"type:varchar(32);primaryKey" json:"id"`
	Name     string    `gorm:"type:varchar(255)" json:"name"`
	LastName string    `gorm:"type:varchar(255)" json:"lastName"`
	Email    string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	Active   bool      `gorm:"index" json:"active"`
	SyncedAt time.Time `gorm:"autoUpdateTime" json:"syncedAt"`
}

func (User) TableName() string { return "users" }

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.LastName)
}

// Quote is a synchronized CRM quote.
type Quote struct {
	ID             string     `gorm:"type:varchar(32);primaryKey" json:"id"`
	Title          string     `gorm:"type:varchar(500)" json:"title,omitempty"`
	StatusID       string     `gorm:"type:varchar(64)" json:"statusId,omitempty"`
	OwnerID        string     `gorm:"column:assigned_by_id;type:varchar(32)" json:"ownerId,omitempty"`
	DateCreated    *time.Time `gorm:"column:date_create" json:"dateCreated,omitempty"`
	DateModified   *time.Time `gorm:"column:date_modify" json:"dateModified,omitempty"`
	CloseDate      *time.Time `gorm:"column:closedate" json:"closeDate,omitempty"`
	Opportunity    float64    `json:"opportunity"`
	OpportunityEUR float64    `gorm:"column:opportunity_eur" json:"opportunityEur"`
	Currency       string     `gorm:"column:currency_id;type:varchar(8)" json:"currency,omitempty"`
	DealID         string     `gorm:"type:varchar(32)" json:"dealId,omitempty"`
	LeadID         string     `gorm:"type:varchar(32)" json:"leadId,omitempty"`
	SyncedAt       time.Time  `gorm:"autoUpdateTime" json:"syncedAt"`
}

func (Quote) TableName() string { return "quotes" }

// Quote status ids that close a quote.
const (
	QuoteStatusApproved = "APPROVED"
	QuoteStatusDeclined = "DECLINED"
)

// IsOpen reports whether the quote is still awaiting a decision.
func (q *Quote) IsOpen() bool {
	return q.StatusID != QuoteStatusApproved && q.StatusID != QuoteStatusDeclined
}

// Source maps a CRM source id to its display name.
type Source struct {
	ID       string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name     string    `gorm:"type:varchar(255)" json:"name"`
	SyncedAt time.Time `gorm:"autoUpdateTime" json:"syncedAt"`
}

func (Source) TableName() string { return "sources" }

// Snapshot is a read-only, fully assembled view of the synchronized CRM data.
type Snapshot struct {
	Leads      []Lead
	Deals      []Deal
	Activities []Activity
	Users      []User
	Quotes     []Quote
	Sources    map[string]string
}

// SyncRunStatus is the lifecycle state of a synchronization run.
type SyncRunStatus string

const (
	SyncRunRunning   SyncRunStatus = "running"
	SyncRunSucceeded SyncRunStatus = "succeeded"
	SyncRunPartial   SyncRunStatus = "partial"
	SyncRunFailed    SyncRunStatus = "failed"
)

// SyncRun records one CRM synchronization attempt.
type SyncRun struct {
	ID         string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	Trigger    string        `gorm:"type:varchar(20)" json:"trigger"`
	Status     SyncRunStatus `gorm:"type:varchar(20);index" json:"status"`
	StartedAt  time.Time     `gorm:"index" json:"startedAt"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
	Fetched    int           `json:"fetched"`
	Upserted   int           `json:"upserted"`
	Error      string        `gorm:"type:text" json:"error,omitempty"`
	ArchiveKey string        `gorm:"type:varchar(255)" json:"archiveKey,omitempty"`
}

func (SyncRun) TableName() string { return "sync_runs" }
