package domain

import "strings"

// Pipeline identifies the CRM deal pipeline encoded in a stage id prefix.
type Pipeline string

const (
	PipelineDefault     Pipeline = "default"
	PipelineSecondary   Pipeline = "secondary"
	PipelineRecruitment Pipeline = "recruitment"
	PipelineReferral    Pipeline = "referral"
)

// pipelinePrefixes maps the known stage id prefixes to their pipeline.
// Any other prefix belongs to the default pipeline.
var pipelinePrefixes = map[string]Pipeline{
	"C1": PipelineRecruitment,
	"C3": PipelineSecondary,
	"C5": PipelineReferral,
}

// IsValid checks if the pipeline is a known value
func (p Pipeline) IsValid() bool {
	switch p {
	case PipelineDefault, PipelineSecondary, PipelineRecruitment, PipelineReferral:
		return true
	}
	return false
}

// IsCommercial reports whether deals in this pipeline count in commercial figures.
func (p Pipeline) IsCommercial() bool {
	return p == PipelineDefault || p == PipelineSecondary
}

// StageKeyword is the stage part of a deal stage id.
type StageKeyword string

const (
	StageNone           StageKeyword = ""
	StageNew            StageKeyword = "NEW"
	StagePreparation    StageKeyword = "PREPARATION"
	StageQuoteSigned    StageKeyword = "PREPAYMENT_INVOICE"
	StageTicketReceived StageKeyword = "EXECUTING"
	StageDeposit        StageKeyword = "FINAL_INVOICE"
	StageWon            StageKeyword = "WON"
	StageLost           StageKeyword = "LOSE"
	StageExpired        StageKeyword = "APOLOGY"
	StageOther          StageKeyword = "OTHER"
)

var stageKeywords = map[string]StageKeyword{
	string(StageNew):            StageNew,
	string(StagePreparation):    StagePreparation,
	string(StageQuoteSigned):    StageQuoteSigned,
	string(StageTicketReceived): StageTicketReceived,
	string(StageDeposit):        StageDeposit,
	string(StageWon):            StageWon,
	string(StageLost):           StageLost,
	string(StageExpired):        StageExpired,
}

// Textual synonyms found in custom stage names, lowercase.
var stageSynonyms = []struct {
	fragment string
	keyword  StageKeyword
}{
	{"apology", StageExpired},
	{"avance", StageDeposit},
	{"acompte", StageDeposit},
	{"deposit", StageDeposit},
	{"devis sign", StageQuoteSigned},
	{"quote signed", StageQuoteSigned},
}

var stageLabels = map[StageKeyword]string{
	StageNew:            "New",
	StagePreparation:    "Preparation",
	StageQuoteSigned:    "Quote signed",
	StageTicketReceived: "Ticket received",
	StageDeposit:        "Deposit received",
	StageWon:            "Won",
	StageLost:           "Lost",
	StageExpired:        "Deposit expired",
}

// Stage is the classified form of a raw deal stage id.
type Stage struct {
	Raw      string
	Pipeline Pipeline
	Keyword  StageKeyword
}

// ParseStage classifies a raw stage id such as "C3:WON" or "FINAL_INVOICE".
// It never fails: unrecognized stage names classify as StageOther and an
// empty id as StageNone.
func ParseStage(raw string) Stage {
	s := Stage{Raw: raw, Pipeline: PipelineDefault}
	rest := strings.TrimSpace(raw)
	if rest == "" {
		return s
	}

	if prefix, remainder, ok := strings.Cut(rest, ":"); ok && isPipelinePrefix(prefix) {
		if p, known := pipelinePrefixes[prefix]; known {
			s.Pipeline = p
		}
		rest = remainder
	}

	if kw, ok := stageKeywords[strings.ToUpper(rest)]; ok {
		s.Keyword = kw
		return s
	}

	lower := strings.ToLower(rest)
	for _, syn := range stageSynonyms {
		if strings.Contains(lower, syn.fragment) {
			s.Keyword = syn.keyword
			return s
		}
	}

	s.Keyword = StageOther
	return s
}

// isPipelinePrefix matches "C" followed by at least one digit.
func isPipelinePrefix(prefix string) bool {
	if len(prefix) < 2 || prefix[0] != 'C' {
		return false
	}
	for _, r := range prefix[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsSet reports whether the deal has any stage at all.
func (s Stage) IsSet() bool { return s.Keyword != StageNone }

func (s Stage) IsWon() bool         { return s.Keyword == StageWon }
func (s Stage) IsDeposit() bool     { return s.Keyword == StageDeposit }
func (s Stage) IsQuoteSigned() bool { return s.Keyword == StageQuoteSigned }
func (s Stage) IsTicket() bool      { return s.Keyword == StageTicketReceived }
func (s Stage) IsLost() bool        { return s.Keyword == StageLost }
func (s Stage) IsExpired() bool     { return s.Keyword == StageExpired }

// IsSale reports won or deposit-received deals.
func (s Stage) IsSale() bool { return s.IsWon() || s.IsDeposit() }

// IsTerminal reports won, lost and expired deals.
func (s Stage) IsTerminal() bool {
	return s.Keyword == StageWon || s.Keyword == StageLost || s.Keyword == StageExpired
}

// IsCommercial reports whether the deal belongs to a commercial pipeline.
func (s Stage) IsCommercial() bool { return s.Pipeline.IsCommercial() }

// Label returns a human readable stage name, falling back to the raw id.
func (s Stage) Label() string {
	if label, ok := stageLabels[s.Keyword]; ok {
		return label
	}
	if s.Raw == "" {
		return "Unknown"
	}
	return s.Raw
}

// LeadStatus is the classified lead status.
type LeadStatus string

const (
	LeadStatusNone      LeadStatus = ""
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusInProcess LeadStatus = "IN_PROCESS"
	LeadStatusProcessed LeadStatus = "PROCESSED"
	LeadStatusConverted LeadStatus = "CONVERTED"
	LeadStatusJunk      LeadStatus = "JUNK"
	LeadStatusOther     LeadStatus = "OTHER"
)

var leadStatusLabels = map[LeadStatus]string{
	LeadStatusNew:       "New",
	LeadStatusInProcess: "In process",
	LeadStatusProcessed: "Processed",
	LeadStatusConverted: "Converted",
	LeadStatusJunk:      "Junk",
}

// ParseLeadStatus classifies a raw status id. Custom statuses map to LeadStatusOther.
func ParseLeadStatus(raw string) LeadStatus {
	switch st := LeadStatus(strings.ToUpper(strings.TrimSpace(raw))); st {
	case LeadStatusNone:
		return LeadStatusNone
	case LeadStatusNew, LeadStatusInProcess, LeadStatusProcessed, LeadStatusConverted, LeadStatusJunk:
		return st
	default:
		return LeadStatusOther
	}
}

// IsTerminal reports converted and junk leads.
func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusConverted || s == LeadStatusJunk
}

// StatusLabel returns a human readable label for a raw lead status id.
func StatusLabel(raw string) string {
	if label, ok := leadStatusLabels[ParseLeadStatus(raw)]; ok {
		return label
	}
	if raw == "" {
		return "Unknown"
	}
	return raw
}
