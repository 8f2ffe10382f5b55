package models

import "time"

type TriggerType string

const (
	TriggerContactCreated TriggerType = "contact_created"
	TriggerContactUpdated TriggerType = "contact_updated"
	TriggerFormSubmitted  TriggerType = "form_submitted"
	TriggerAPIWebhook     TriggerType = "api_webhook"
	TriggerManual         TriggerType = "manual"
)

type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "notEquals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "notContains"
	OpStartsWith  Operator = "startsWith"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpIsBlank     Operator = "isBlank"
	OpIsPresent   Operator = "isPresent"
)

const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

const (
	DistributionEqual    = "equal"
	DistributionWeighted = "weighted"
)

const (
	MemberActive = "active"
	MemberPaused = "paused"
)

const (
	MethodAuto   = "auto"
	MethodManual = "manual"
)

const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"
)

const (
	BookingScheduled   = "scheduled"
	BookingCompleted   = "completed"
	BookingCancelled   = "cancelled"
	BookingNoShow      = "no_show"
	BookingRescheduled = "rescheduled"
)

// Record is an object-agnostic routing subject (lead, contact, or account)
// reduced to its normalized routing fields.
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Company     string    `json:"company"`
	JobTitle    string    `json:"job_title"`
	LeadSource  string    `json:"lead_source"`
	Industry    string    `json:"industry"`
	Country     string    `json:"country"`
	CompanySize string    `json:"company_size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Field resolves a routing field by its rule-facing name. Unknown fields
// resolve to an empty value, the same as a blank field.
func (r Record) Field(name string) string {
	switch name {
	case "name":
		return r.Name
	case "email":
		return r.Email
	case "phone":
		return r.Phone
	case "company":
		return r.Company
	case "jobTitle":
		return r.JobTitle
	case "leadSource":
		return r.LeadSource
	case "industry":
		return r.Industry
	case "country":
		return r.Country
	case "companySize":
		return r.CompanySize
	default:
		return ""
	}
}

type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

type Rule struct {
	ID             string      `json:"id"`
	RulesetID      string      `json:"ruleset_id"`
	Name           string      `json:"name"`
	Priority       int         `json:"priority"`
	Conditions     []Condition `json:"conditions"`
	ConditionLogic string      `json:"condition_logic"`
	TargetGroupID  string      `json:"target_group_id"`
	IsActive       bool        `json:"is_active"`
}

type Ruleset struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	TriggerTypes []TriggerType `json:"trigger_types"`
	IsActive     bool          `json:"is_active"`
	Rules        []Rule        `json:"rules"`
}

func (rs Ruleset) HasTrigger(t TriggerType) bool {
	for _, tt := range rs.TriggerTypes {
		if tt == t {
			return true
		}
	}
	return false
}

type Group struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	DistributionMode string        `json:"distribution_mode"`
	IsActive         bool          `json:"is_active"`
	Cursor           int           `json:"cursor"`
	Members          []GroupMember `json:"members"`
}

type GroupMember struct {
	GroupID  string `json:"group_id"`
	UserID   string `json:"user_id"`
	Weight   int    `json:"weight"`
	Credits  int    `json:"credits"`
	Status   string `json:"status"`
	Position int    `json:"position"`
}

type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Status         string `json:"status"`
	Timezone       string `json:"timezone"`
	DailyCapacity  *int   `json:"daily_capacity"`
	WeeklyCapacity *int   `json:"weekly_capacity"`
}

// Assignment is append-only; the current owner of a record is its most
// recent assignment.
type Assignment struct {
	ID        string    `json:"id"`
	RecordID  string    `json:"record_id"`
	UserID    string    `json:"user_id"`
	GroupID   string    `json:"group_id"`
	RuleID    *string   `json:"rule_id"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"created_at"`
}

// CalendarSync binds a user (or the shared fallback when UserID is nil)
// to one calendar vendor. Token columns hold ciphertext.
type CalendarSync struct {
	ID           string     `json:"id"`
	UserID       *string    `json:"user_id"`
	Provider     string     `json:"provider"`
	Email        string     `json:"email"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	ExpiresAt    time.Time  `json:"expires_at"`
	SyncEnabled  bool       `json:"sync_enabled"`
	LastSyncAt   *time.Time `json:"last_sync_at"`
	LastError    *string    `json:"last_error"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Booking struct {
	ID                 string    `json:"id"`
	RecordID           string    `json:"record_id"`
	UserID             string    `json:"user_id"`
	ScheduledAt        time.Time `json:"scheduled_at"`
	DurationMinutes    int       `json:"duration_minutes"`
	Status             string    `json:"status"`
	Notes              string    `json:"notes"`
	CancellationReason *string   `json:"cancellation_reason"`
	Outcome            *string   `json:"outcome"`
	OriginalBookingID  *string   `json:"original_booking_id"`
	ProviderEventID    string    `json:"provider_event_id"`
	ConferenceLink     string    `json:"conference_link"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (b Booking) End() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

type BookingEvent struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	EventType     string    `json:"event_type"`
	Description   string    `json:"description"`
	PreviousValue string    `json:"previous_value"`
	NewValue      string    `json:"new_value"`
	CreatedAt     time.Time `json:"created_at"`
}
