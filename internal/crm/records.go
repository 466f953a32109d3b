package crm

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text is a CRM scalar. The REST API usually sends strings but some fields
// arrive as numbers, booleans or null depending on the portal version.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(data)
	return nil
}

func (t Text) String() string { return strings.TrimSpace(string(t)) }

// Int parses the value as an integer, returning 0 when it is not one.
func (t Text) Int() int {
	n, err := strconv.Atoi(t.String())
	if err != nil {
		return 0
	}
	return n
}

// Float parses the value as a decimal, returning 0 when it is not one.
func (t Text) Float() float64 {
	f, err := strconv.ParseFloat(t.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

// Flag is a CRM boolean sent as true/false or "Y"/"N".
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var t Text
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	switch strings.ToUpper(t.String()) {
	case "Y", "TRUE", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

// MultiField is one entry of a multi-value field such as PHONE or EMAIL.
type MultiField struct {
	Value     Text `json:"VALUE"`
	ValueType Text `json:"VALUE_TYPE"`
}

// First returns the first value of a multi-value field.
func First(values []MultiField) string {
	for _, v := range values {
		if s := v.Value.String(); s != "" {
			return s
		}
	}
	return ""
}

// LeadRecord is a crm.lead.list row.
type LeadRecord struct {
	ID               Text         `json:"ID"`
	Title            Text         `json:"TITLE"`
	Name             Text         `json:"NAME"`
	StatusID         Text         `json:"STATUS_ID"`
	SourceID         Text         `json:"SOURCE_ID"`
	AssignedByID     Text         `json:"ASSIGNED_BY_ID"`
	DateCreate       Text         `json:"DATE_CREATE"`
	DateModify       Text         `json:"DATE_MODIFY"`
	DateClosed       Text         `json:"DATE_CLOSED"`
	LastActivityTime Text         `json:"LAST_ACTIVITY_TIME"`
	LastActivityBy   Text         `json:"LAST_ACTIVITY_BY"`
	Opportunity      Text         `json:"OPPORTUNITY"`
	CurrencyID       Text         `json:"CURRENCY_ID"`
	Phone            []MultiField `json:"PHONE"`
	Email            []MultiField `json:"EMAIL"`
}

// DealRecord is a crm.deal.list row.
type DealRecord struct {
	ID               Text `json:"ID"`
	Title            Text `json:"TITLE"`
	StageID          Text `json:"STAGE_ID"`
	AssignedByID     Text `json:"ASSIGNED_BY_ID"`
	DateCreate       Text `json:"DATE_CREATE"`
	DateModify       Text `json:"DATE_MODIFY"`
	CloseDate        Text `json:"CLOSEDATE"`
	MovedTime        Text `json:"MOVED_TIME"`
	LastActivityTime Text `json:"LAST_ACTIVITY_TIME"`
	LastActivityBy   Text `json:"LAST_ACTIVITY_BY"`
	Opportunity      Text `json:"OPPORTUNITY"`
	CurrencyID       Text `json:"CURRENCY_ID"`
	LeadID           Text `json:"LEAD_ID"`
}

// QuoteRecord is a crm.quote.list row.
type QuoteRecord struct {
	ID           Text `json:"ID"`
	Title        Text `json:"TITLE"`
	StatusID     Text `json:"STATUS_ID"`
	AssignedByID Text `json:"ASSIGNED_BY_ID"`
	DateCreate   Text `json:"DATE_CREATE"`
	DateModify   Text `json:"DATE_MODIFY"`
	CloseDate    Text `json:"CLOSEDATE"`
	Opportunity  Text `json:"OPPORTUNITY"`
	CurrencyID   Text `json:"CURRENCY_ID"`
	DealID       Text `json:"DEAL_ID"`
	LeadID       Text `json:"LEAD_ID"`
}

// ActivityRecord is a crm.activity.list row.
type ActivityRecord struct {
	ID            Text `json:"ID"`
	OwnerTypeID   Text `json:"OWNER_TYPE_ID"`
	OwnerID       Text `json:"OWNER_ID"`
	TypeID        Text `json:"TYPE_ID"`
	Subject       Text `json:"SUBJECT"`
	Completed     Flag `json:"COMPLETED"`
	ResponsibleID Text `json:"RESPONSIBLE_ID"`
	Created       Text `json:"CREATED"`
	LastUpdated   Text `json:"LAST_UPDATED"`
	Deadline      Text `json:"DEADLINE"`
	StartTime     Text `json:"START_TIME"`
	EndTime       Text `json:"END_TIME"`
	Direction     Text `json:"DIRECTION"`
	ProviderID    Text `json:"PROVIDER_ID"`
}

// UserRecord is a user.get row.
type UserRecord struct {
	ID       Text `json:"ID"`
	Name     Text `json:"NAME"`
	LastName Text `json:"LAST_NAME"`
	Email    Text `json:"EMAIL"`
	Active   Flag `json:"ACTIVE"`
}

// SourceRecord is a crm.status.list row of the SOURCE entity.
type SourceRecord struct {
	StatusID Text `json:"STATUS_ID"`
	Name     Text `json:"NAME"`
}

// Field lists requested from the list methods.
var (
	leadFields = []string{
		"ID", "TITLE", "NAME", "STATUS_ID", "SOURCE_ID", "ASSIGNED_BY_ID",
		"DATE_CREATE", "DATE_MODIFY", "DATE_CLOSED", "LAST_ACTIVITY_TIME", "LAST_ACTIVITY_BY",
		"OPPORTUNITY", "CURRENCY_ID", "PHONE", "EMAIL",
	}
	dealFields = []string{
		"ID", "TITLE", "STAGE_ID", "ASSIGNED_BY_ID", "DATE_CREATE", "DATE_MODIFY",
		"CLOSEDATE", "MOVED_TIME", "LAST_ACTIVITY_TIME", "LAST_ACTIVITY_BY",
		"OPPORTUNITY", "CURRENCY_ID", "LEAD_ID",
	}
	quoteFields = []string{
		"ID", "TITLE", "STATUS_ID", "ASSIGNED_BY_ID", "DATE_CREATE", "DATE_MODIFY",
		"CLOSEDATE", "OPPORTUNITY", "CURRENCY_ID", "DEAL_ID", "LEAD_ID",
	}
	activityFields = []string{
		"ID", "OWNER_TYPE_ID", "OWNER_ID", "TYPE_ID", "SUBJECT", "COMPLETED",
		"RESPONSIBLE_ID", "CREATED", "LAST_UPDATED", "DEADLINE", "START_TIME",
		"END_TIME", "DIRECTION", "PROVIDER_ID",
	}
)
