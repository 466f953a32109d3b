// Package analytics derives the sales dashboard from a CRM snapshot.
//
// Every computation is a pure function of the snapshot, the options and the
// engine clock. Nothing is cached between calls and the input snapshot is
// never mutated, so independent components may run in any order.
package analytics

import (
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
)

// Sentinel values used when a date is missing.
const (
	// UnknownDays is reported for "days since" computations on a nil date.
	UnknownDays = 999
	// UnknownOwner is the display name of unresolved owners.
	UnknownOwner = "Unknown"
)

// ReactivityTier awards Points when the mean first-contact delay is at most MaxDays.
type ReactivityTier struct {
	MaxDays float64
	Points  float64
}

// RecommendationTier maps a score and capacity floor to a weekly intake.
// Intake is BaseIntake + StepIntake * floor((score - MinScore) / ScoreStep).
type RecommendationTier struct {
	Recommendation domain.Recommendation
	MinScore       int
	MinCapacity    int
	BaseIntake     int
	StepIntake     int
}

// ScoringModel holds every constant of the allocation score.
type ScoringModel struct {
	WindowDays  int
	WorkingDays float64

	ClosingMax        float64
	ClosingTargetRate float64

	ReactivityTiers []ReactivityTier

	SaturationMax     float64
	SaturationPenalty float64
	OverdueDays       float64

	WasteMax     float64
	WastePenalty float64

	VolumeMax    float64
	VolumeTarget float64

	CapacityCeiling int
	ScoreStep       int
	Tiers           []RecommendationTier

	CostPerLead   float64
	WeeksPerMonth float64
}

// DefaultScoringModel returns the production scoring constants.
func DefaultScoringModel() ScoringModel {
	return ScoringModel{
		WindowDays:        60,
		WorkingDays:       40,
		ClosingMax:        35,
		ClosingTargetRate: 15,
		ReactivityTiers: []ReactivityTier{
			{MaxDays: 1, Points: 25},
			{MaxDays: 2, Points: 20},
			{MaxDays: 3, Points: 15},
			{MaxDays: 5, Points: 10},
		},
		SaturationMax:     20,
		SaturationPenalty: 0.4,
		OverdueDays:       3,
		WasteMax:          15,
		WastePenalty:      0.3,
		VolumeMax:         5,
		VolumeTarget:      15,
		CapacityCeiling:   10,
		ScoreStep:         10,
		Tiers: []RecommendationTier{
			{Recommendation: domain.RecommendationPriority, MinScore: 70, MinCapacity: 5, BaseIntake: 15, StepIntake: 5},
			{Recommendation: domain.RecommendationNormal, MinScore: 60, MinCapacity: 3, BaseIntake: 8, StepIntake: 4},
			{Recommendation: domain.RecommendationLimited, MinScore: 50, MinCapacity: 2, BaseIntake: 3, StepIntake: 2},
		},
		CostPerLead:   6,
		WeeksPerMonth: 4,
	}
}

// SourceCategory buckets lead sources by lowercase keyword containment.
type SourceCategory struct {
	Name     string
	Keywords []string
}

// Settings are the engine-wide tunables. They come from configuration and do
// not vary per request.
type Settings struct {
	Location              *time.Location
	CorporateSuffix       string
	ExcludedKeywords      []string
	NonCommercialNames    []string
	ManagerNames          []string
	SourceCategories      []SourceCategory
	QuoteExpiryDays       int
	QuoteSignedRiskDays   int
	DepositRiskDays       int
	NeverContactedGrace   time.Duration
	TopCloserMinConverted int
	TopCloserLimit        int
	VerdictYellowRatio    float64
	Model                 ScoringModel
}

// DefaultSourceCategories returns the marketing channel buckets.
func DefaultSourceCategories() []SourceCategory {
	return []SourceCategory{
		{Name: "WhatsApp", Keywords: []string{"whatsapp", "wa "}},
		{Name: "Facebook", Keywords: []string{"facebook", "fb", "meta"}},
		{Name: "Instagram", Keywords: []string{"instagram", "insta"}},
		{Name: "Website", Keywords: []string{"site", "web", "formulaire", "form"}},
		{Name: "Lead Gen", Keywords: []string{"lead gen", "leadgen", "google", "ads"}},
		{Name: "Calls", Keywords: []string{"appel", "call", "phone", "téléphone"}},
		{Name: "Referral", Keywords: []string{"parrain", "referral", "recommand"}},
		{Name: "Email", Keywords: []string{"email", "mail", "e-mail"}},
		{Name: "Migration", Keywords: []string{"migration", "import"}},
	}
}

// DefaultSettings returns settings suitable for tests and local runs.
func DefaultSettings() Settings {
	return Settings{
		Location:              time.UTC,
		ExcludedKeywords:      []string{"bad lead", "admin", "test", "demo"},
		SourceCategories:      DefaultSourceCategories(),
		QuoteExpiryDays:       30,
		QuoteSignedRiskDays:   7,
		DepositRiskDays:       30,
		NeverContactedGrace:   60 * time.Second,
		TopCloserMinConverted: 10,
		TopCloserLimit:        5,
		VerdictYellowRatio:    0.7,
		Model:                 DefaultScoringModel(),
	}
}

// Options are the per-request dashboard options.
type Options struct {
	Period                     domain.PeriodPreset
	Start                      *time.Time
	End                        *time.Time
	Owners                     []string
	RetardThreshold            int
	CriticalThreshold          int
	ExcludeWithPendingReminder bool
	ClosingTargetPercent       float64
	// Day selects the daily activity report date. Nil means today.
	Day *time.Time
}

// Option defaults.
const (
	DefaultRetardThreshold      = 3
	DefaultCriticalThreshold    = 7
	DefaultClosingTargetPercent = 15
)

// DefaultOptions returns the dashboard defaults: all time, every owner,
// 3/7 day thresholds, reminders excluded and a 15% closing target.
func DefaultOptions() Options {
	return Options{
		Period:                     domain.PeriodAll,
		RetardThreshold:            DefaultRetardThreshold,
		CriticalThreshold:          DefaultCriticalThreshold,
		ExcludeWithPendingReminder: true,
		ClosingTargetPercent:       DefaultClosingTargetPercent,
	}
}

func (o Options) normalized() Options {
	if !o.Period.IsValid() {
		o.Period = domain.PeriodAll
	}
	if o.RetardThreshold < 0 {
		o.RetardThreshold = DefaultRetardThreshold
	}
	if o.CriticalThreshold < 0 {
		o.CriticalThreshold = DefaultCriticalThreshold
	}
	if o.ClosingTargetPercent <= 0 {
		o.ClosingTargetPercent = DefaultClosingTargetPercent
	}
	return o
}
