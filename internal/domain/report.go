package domain

import "time"

// PeriodPreset names a dashboard reporting window.
type PeriodPreset string

const (
	PeriodToday     PeriodPreset = "today"
	PeriodYesterday PeriodPreset = "yesterday"
	PeriodThisWeek  PeriodPreset = "week"
	PeriodLastWeek  PeriodPreset = "lastweek"
	PeriodThisMonth PeriodPreset = "month"
	PeriodLastMonth PeriodPreset = "lastmonth"
	PeriodQuarter   PeriodPreset = "quarter"
	PeriodThisYear  PeriodPreset = "year"
	PeriodAll       PeriodPreset = "all"
	PeriodCustom    PeriodPreset = "custom"
)

// IsValid checks if the preset is a known value
func (p PeriodPreset) IsValid() bool {
	switch p {
	case PeriodToday, PeriodYesterday, PeriodThisWeek, PeriodLastWeek, PeriodThisMonth,
		PeriodLastMonth, PeriodQuarter, PeriodThisYear, PeriodAll, PeriodCustom:
		return true
	}
	return false
}

// Period is a closed reporting interval.
type Period struct {
	Preset PeriodPreset `json:"preset"`
	Start  time.Time    `json:"start"`
	End    time.Time    `json:"end"`
}

// Contains reports whether t lies within the closed interval. Nil is never contained.
func (p Period) Contains(t *time.Time) bool {
	if t == nil {
		return false
	}
	return !t.Before(p.Start) && !t.After(p.End)
}

// Verdict colours a rate against the closing target.
type Verdict string

const (
	VerdictGreen  Verdict = "green"
	VerdictYellow Verdict = "yellow"
	VerdictRed    Verdict = "red"
)

// UserType classifies CRM accounts for reporting.
type UserType string

const (
	UserTypeCommercial    UserType = "commercial"
	UserTypeManager       UserType = "manager"
	UserTypeNonCommercial UserType = "non_commercial"
	UserTypeExcluded      UserType = "excluded"
)

// ============================================================================
// Funnel
// ============================================================================

// LeadFunnel summarizes leads created in the reporting period.
type LeadFunnel struct {
	Total          int     `json:"total"`
	Converted      int     `json:"converted"`
	Junk           int     `json:"junk"`
	InProgress     int     `json:"inProgress"`
	ConversionRate float64 `json:"conversionRate"`
	CreatedToday   int     `json:"createdToday"`
	ModifiedToday  int     `json:"modifiedToday"`
}

// StageCount is one row of a per-stage histogram.
type StageCount struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Count int     `json:"count"`
	Value float64 `json:"value,omitempty"`
}

// DealFunnel summarizes commercial deals created in the reporting period.
type DealFunnel struct {
	Total                     int          `json:"total"`
	Won                       int          `json:"won"`
	Deposit                   int          `json:"deposit"`
	Lost                      int          `json:"lost"`
	Expired                   int          `json:"expired"`
	InProgress                int          `json:"inProgress"`
	SalesWithDeposit          int          `json:"salesWithDeposit"`
	SalesWithoutDeposit       int          `json:"salesWithoutDeposit"`
	Revenue                   float64      `json:"revenue"`
	ClosingRateWithDeposit    float64      `json:"closingRateWithDeposit"`
	ClosingRateWithoutDeposit float64      `json:"closingRateWithoutDeposit"`
	GlobalRateWithDeposit     float64      `json:"globalRateWithDeposit"`
	GlobalRateWithoutDeposit  float64      `json:"globalRateWithoutDeposit"`
	Verdict                   Verdict      `json:"verdict"`
	ByStage                   []StageCount `json:"byStage"`
}

// OwnerFunnel is the funnel of a single owner.
type OwnerFunnel struct {
	OwnerID                   string  `json:"ownerId"`
	Name                      string  `json:"name"`
	Leads                     int     `json:"leads"`
	Converted                 int     `json:"converted"`
	Junk                      int     `json:"junk"`
	InProgress                int     `json:"inProgress"`
	Deals                     int     `json:"deals"`
	Won                       int     `json:"won"`
	Deposit                   int     `json:"deposit"`
	Lost                      int     `json:"lost"`
	Expired                   int     `json:"expired"`
	SalesWithDeposit          int     `json:"salesWithDeposit"`
	Revenue                   float64 `json:"revenue"`
	ConversionRate            float64 `json:"conversionRate"`
	ClosingRateWithDeposit    float64 `json:"closingRateWithDeposit"`
	ClosingRateWithoutDeposit float64 `json:"closingRateWithoutDeposit"`
	GlobalRateWithDeposit     float64 `json:"globalRateWithDeposit"`
	GlobalRateWithoutDeposit  float64 `json:"globalRateWithoutDeposit"`
	Verdict                   Verdict `json:"verdict"`
}

// SourceStats is the funnel of one lead source or source category.
type SourceStats struct {
	Key                      string  `json:"key"`
	Name                     string  `json:"name"`
	Category                 string  `json:"category,omitempty"`
	Leads                    int     `json:"leads"`
	Converted                int     `json:"converted"`
	Junk                     int     `json:"junk"`
	Won                      int     `json:"won"`
	Deposit                  int     `json:"deposit"`
	SalesWithDeposit         int     `json:"salesWithDeposit"`
	Revenue                  float64 `json:"revenue"`
	ConversionRate           float64 `json:"conversionRate"`
	ClosingRate              float64 `json:"closingRate"`
	GlobalRateWithDeposit    float64 `json:"globalRateWithDeposit"`
	GlobalRateWithoutDeposit float64 `json:"globalRateWithoutDeposit"`
}

// MonthlyPoint is one calendar month of the time series.
type MonthlyPoint struct {
	Month                  string  `json:"month"`
	Leads                  int     `json:"leads"`
	Converted              int     `json:"converted"`
	Junk                   int     `json:"junk"`
	InProgress             int     `json:"inProgress"`
	ConversionRate         float64 `json:"conversionRate"`
	Deals                  int     `json:"deals"`
	Won                    int     `json:"won"`
	Deposit                int     `json:"deposit"`
	Revenue                float64 `json:"revenue"`
	ClosingRateWithDeposit float64 `json:"closingRateWithDeposit"`
}

// DelayStats holds average lifecycle durations in days. A nil value means no sample.
type DelayStats struct {
	LeadToConverted *float64 `json:"leadToConverted"`
	LeadToJunk      *float64 `json:"leadToJunk"`
	DealToWon       *float64 `json:"dealToWon"`
	DealToDeposit   *float64 `json:"dealToDeposit"`
	LeadToWon       *float64 `json:"leadToWon"`
	LeadToDeposit   *float64 `json:"leadToDeposit"`
}

// FunnelReport is the aggregation output for one period and owner filter.
type FunnelReport struct {
	Period        Period         `json:"period"`
	Leads         LeadFunnel     `json:"leads"`
	Deals         DealFunnel     `json:"deals"`
	ByOwner       []OwnerFunnel  `json:"byOwner"`
	BySource      []SourceStats  `json:"bySource"`
	ByCategory    []SourceStats  `json:"byCategory"`
	Monthly       []MonthlyPoint `json:"monthly"`
	Delays        DelayStats     `json:"delays"`
	Commercials   []OwnerFunnel  `json:"commercials"`
	TopClosers    []OwnerFunnel  `json:"topClosers"`
	ExpiredQuotes int            `json:"expiredQuotes"`
}

// ============================================================================
// Alerts
// ============================================================================

// AlertItem is one stale lead or deal.
type AlertItem struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	StatusLabel      string     `json:"statusLabel"`
	OwnerID          string     `json:"ownerId"`
	Created          *time.Time `json:"created"`
	Modified         *time.Time `json:"modified"`
	LastContact      *time.Time `json:"lastContact"`
	DaysSinceContact int        `json:"daysSinceContact"`
	Phone            string     `json:"phone,omitempty"`
	Email            string     `json:"email,omitempty"`
	Source           string     `json:"source,omitempty"`
	Amount           float64    `json:"amount,omitempty"`
	HasReminder      bool       `json:"hasReminder"`
	Critical         bool       `json:"critical"`
}

// OwnerAlerts groups stale items of one owner.
type OwnerAlerts struct {
	OwnerID  string      `json:"ownerId"`
	Name     string      `json:"name"`
	Count    int         `json:"count"`
	Critical int         `json:"critical"`
	Items    []AlertItem `json:"items"`
}

// StaleReport is the staleness classification of one entity kind.
type StaleReport struct {
	Total              int           `json:"total"`
	Critical           int           `json:"critical"`
	ByOwner            []OwnerAlerts `json:"byOwner"`
	ByStage            []StageCount  `json:"byStage"`
	ExcludedByReminder int           `json:"excludedByReminder"`
	TotalWithReminder  int           `json:"totalWithReminder"`
}

// AlertsReport bundles lead and deal staleness.
type AlertsReport struct {
	RetardThreshold     int         `json:"retardThreshold"`
	CriticalThreshold   int         `json:"criticalThreshold"`
	ExcludeWithReminder bool        `json:"excludeWithReminder"`
	Leads               StaleReport `json:"leads"`
	Deals               StaleReport `json:"deals"`
	ExpiredQuotes       int         `json:"expiredQuotes"`
}

// ============================================================================
// Data quality
// ============================================================================

// LeadMatch is a candidate source lead for an orphan deal.
type LeadMatch struct {
	LeadID    string `json:"leadId"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	OwnerName string `json:"ownerName"`
}

// Orphan deal categories.
const (
	OrphanWon        = "won"
	OrphanInProgress = "inProgress"
	OrphanLost       = "lost"
	OrphanExpired    = "expired"
	OrphanOther      = "other"
)

// OrphanDeal is a commercial deal with no linked lead.
type OrphanDeal struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	StageID     string     `json:"stageId"`
	StageLabel  string     `json:"stageLabel"`
	Category    string     `json:"category"`
	OwnerID     string     `json:"ownerId"`
	OwnerName   string     `json:"ownerName"`
	Amount      float64    `json:"amount"`
	Created     *time.Time `json:"created"`
	Match       *LeadMatch `json:"match,omitempty"`
	HasConflict bool       `json:"hasConflict"`
}

// OwnerCount counts entities per owner.
type OwnerCount struct {
	OwnerID string `json:"ownerId"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Won     int    `json:"won"`
}

// OrphanSummary is the orphan-deal audit.
type OrphanSummary struct {
	Total      int          `json:"total"`
	Won        int          `json:"won"`
	InProgress int          `json:"inProgress"`
	Lost       int          `json:"lost"`
	Expired    int          `json:"expired"`
	WonRevenue float64      `json:"wonRevenue"`
	Matched    int          `json:"matched"`
	Conflicts  int          `json:"conflicts"`
	Deals      []OrphanDeal `json:"deals"`
	ByOwner    []OwnerCount `json:"byOwner"`
}

// AuditItem is a lead or deal flagged by the quality audit.
type AuditItem struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	OwnerID   string     `json:"ownerId"`
	OwnerName string     `json:"ownerName"`
	Created   *time.Time `json:"created"`
	DaysOld   int        `json:"daysOld"`
	Amount    float64    `json:"amount,omitempty"`
}

// LoyalCustomer is a lead linked to more than one won deal.
type LoyalCustomer struct {
	LeadID    string   `json:"leadId"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone,omitempty"`
	Email     string   `json:"email,omitempty"`
	OwnerID   string   `json:"ownerId,omitempty"`
	OwnerName string   `json:"ownerName,omitempty"`
	WonCount  int      `json:"wonCount"`
	Revenue   float64  `json:"revenue"`
	DealIDs   []string `json:"dealIds"`
}

// QualityReport is the data-quality audit.
type QualityReport struct {
	DealsWithoutLead    OrphanSummary   `json:"dealsWithoutLead"`
	NeverContactedDeals []AuditItem     `json:"neverContactedDeals"`
	NeverContactedLeads []AuditItem     `json:"neverContactedLeads"`
	OrphanedOwnerLeads  []AuditItem     `json:"orphanedOwnerLeads"`
	OrphanedOwnerDeals  []AuditItem     `json:"orphanedOwnerDeals"`
	LoyalCustomers      []LoyalCustomer `json:"loyalCustomers"`
	CriticalCount       int             `json:"criticalCount"`
	IssueCount          int             `json:"issueCount"`
}

// ============================================================================
// Hot deals
// ============================================================================

// HotDeal is a late-stage commercial deal.
type HotDeal struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	StageID          string     `json:"stageId"`
	StageLabel       string     `json:"stageLabel"`
	OwnerID          string     `json:"ownerId"`
	OwnerName        string     `json:"ownerName"`
	Amount           float64    `json:"amount"`
	Created          *time.Time `json:"created"`
	MovedAt          *time.Time `json:"movedAt"`
	LastContact      *time.Time `json:"lastContact"`
	DaysSinceContact int        `json:"daysSinceContact"`
	DaysInStage      int        `json:"daysInStage"`
	HasReminder      bool       `json:"hasReminder"`
	AtRisk           bool       `json:"atRisk"`
}

// HotDealBucket groups hot deals of one late stage.
type HotDealBucket struct {
	Count         int       `json:"count"`
	Revenue       float64   `json:"revenue"`
	Deals         []HotDeal `json:"deals"`
	AtRisk        []HotDeal `json:"atRisk"`
	AtRiskRevenue float64   `json:"atRiskRevenue"`
	WithReminder  []HotDeal `json:"withReminder"`
}

// HotDealOwner rolls up hot deals per owner.
type HotDealOwner struct {
	OwnerID     string  `json:"ownerId"`
	Name        string  `json:"name"`
	QuoteSigned int     `json:"quoteSigned"`
	Deposit     int     `json:"deposit"`
	Ticket      int     `json:"ticket"`
	Revenue     float64 `json:"revenue"`
	AtRisk      int     `json:"atRisk"`
}

// HotDealsReport is the hot-deal monitor output.
type HotDealsReport struct {
	QuoteSigned   HotDealBucket  `json:"quoteSigned"`
	Deposit       HotDealBucket  `json:"deposit"`
	Ticket        HotDealBucket  `json:"ticket"`
	TotalCount    int            `json:"totalCount"`
	TotalRevenue  float64        `json:"totalRevenue"`
	AtRiskCount   int            `json:"atRiskCount"`
	AtRiskRevenue float64        `json:"atRiskRevenue"`
	ByOwner       []HotDealOwner `json:"byOwner"`
}

// ============================================================================
// Allocation
// ============================================================================

// Recommendation is the lead-intake decision for a commercial.
type Recommendation string

const (
	RecommendationPriority Recommendation = "priority"
	RecommendationNormal   Recommendation = "normal"
	RecommendationLimited  Recommendation = "limited"
	RecommendationStop     Recommendation = "stop"
)

// Scorecard is the allocation score of one commercial.
type Scorecard struct {
	OwnerID             string         `json:"ownerId"`
	Name                string         `json:"name"`
	WindowLeads         int            `json:"windowLeads"`
	WindowDeals         int            `json:"windowDeals"`
	Converted           int            `json:"converted"`
	Sales               int            `json:"sales"`
	ClosingRate         float64        `json:"closingRate"`
	AvgFirstContactDays float64        `json:"avgFirstContactDays"`
	ContactedLeads      int            `json:"contactedLeads"`
	ActiveLeads         int            `json:"activeLeads"`
	OverdueLeads        int            `json:"overdueLeads"`
	PctOverdue          float64        `json:"pctOverdue"`
	NeverContacted      int            `json:"neverContacted"`
	PctNeverContacted   float64        `json:"pctNeverContacted"`
	Activities          int            `json:"activities"`
	ActivitiesPerDay    float64        `json:"activitiesPerDay"`
	ScoreClosing        float64        `json:"scoreClosing"`
	ScoreReactivity     float64        `json:"scoreReactivity"`
	ScoreSaturation     float64        `json:"scoreSaturation"`
	ScoreWaste          float64        `json:"scoreWaste"`
	ScoreVolume         float64        `json:"scoreVolume"`
	ScoreTotal          int            `json:"scoreTotal"`
	Capacity            int            `json:"capacity"`
	Recommendation      Recommendation `json:"recommendation"`
	WeeklyIntake        int            `json:"weeklyIntake"`
}

// RecommendationGroup lists the commercials sharing a recommendation.
type RecommendationGroup struct {
	Recommendation Recommendation `json:"recommendation"`
	OwnerIDs       []string       `json:"ownerIds"`
	Names          []string       `json:"names"`
	WeeklyIntake   int            `json:"weeklyIntake"`
}

// AllocationReport is the allocation scoring output.
type AllocationReport struct {
	WindowDays        int                   `json:"windowDays"`
	WindowStart       time.Time             `json:"windowStart"`
	Scorecards        []Scorecard           `json:"scorecards"`
	Groups            []RecommendationGroup `json:"groups"`
	TotalWeeklyIntake int                   `json:"totalWeeklyIntake"`
	CostPerLead       float64               `json:"costPerLead"`
	WeeklyBudget      float64               `json:"weeklyBudget"`
	MonthlyBudget     float64               `json:"monthlyBudget"`
}

// ============================================================================
// Daily activity
// ============================================================================

// PendingActivity is a planned activity not yet done on its due day.
type PendingActivity struct {
	ID              string       `json:"id"`
	Subject         string       `json:"subject"`
	TypeID          ActivityType `json:"typeId"`
	OwnerTypeID     int          `json:"ownerTypeId"`
	OwnerID         string       `json:"ownerId"`
	EntityTitle     string       `json:"entityTitle"`
	ResponsibleID   string       `json:"responsibleId"`
	ResponsibleName string       `json:"responsibleName"`
	Deadline        *time.Time   `json:"deadline"`
}

// DailyUserStats is one commercial's activity on the chosen day.
type DailyUserStats struct {
	UserID       string            `json:"userId"`
	Name         string            `json:"name"`
	Activities   int               `json:"activities"`
	Calls        int               `json:"calls"`
	Emails       int               `json:"emails"`
	Tasks        int               `json:"tasks"`
	Meetings     int               `json:"meetings"`
	LeadsCreated int               `json:"leadsCreated"`
	DealsCreated int               `json:"dealsCreated"`
	Won          int               `json:"won"`
	Revenue      float64           `json:"revenue"`
	Planned      int               `json:"planned"`
	Done         int               `json:"done"`
	Pending      int               `json:"pending"`
	PendingItems []PendingActivity `json:"pendingItems"`
}

// DailyReport summarizes activity on a single calendar day.
type DailyReport struct {
	Date              string            `json:"date"`
	ActivitiesCreated int               `json:"activitiesCreated"`
	LeadsCreated      int               `json:"leadsCreated"`
	DealsCreated      int               `json:"dealsCreated"`
	Won               int               `json:"won"`
	Deposit           int               `json:"deposit"`
	RevenueWon        float64           `json:"revenueWon"`
	Planned           int               `json:"planned"`
	Done              int               `json:"done"`
	Pending           int               `json:"pending"`
	ByUser            []DailyUserStats  `json:"byUser"`
	PendingItems      []PendingActivity `json:"pendingItems"`
}

// ============================================================================
// Full report
// ============================================================================

// Report is the complete dashboard computation.
type Report struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	Funnel      FunnelReport     `json:"funnel"`
	Alerts      AlertsReport     `json:"alerts"`
	Quality     QualityReport    `json:"quality"`
	HotDeals    HotDealsReport   `json:"hotDeals"`
	Allocation  AllocationReport `json:"allocation"`
	Daily       DailyReport      `json:"daily"`
}

// EntitySyncResult reports the outcome of synchronizing one entity kind.
type EntitySyncResult struct {
	Entity   string `json:"entity"`
	Fetched  int    `json:"fetched"`
	Upserted int    `json:"upserted"`
	Pages    int    `json:"pages"`
	HasMore  bool   `json:"hasMore"`
	Error    string `json:"error,omitempty"`
}

// SyncResult reports a full CRM synchronization run.
type SyncResult struct {
	RunID      string             `json:"runId"`
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt time.Time          `json:"finishedAt"`
	Entities   []EntitySyncResult `json:"entities"`
	ArchiveKey string             `json:"archiveKey,omitempty"`
}
