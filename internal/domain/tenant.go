package domain

import "time"

// Status represents the audit state of a tenant.
type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
)

// Decision codes accepted by the audit operation. Any other value is a
// validation failure.
const (
	DecisionApproved = 1
	DecisionRejected = 2
)

// Event represents an action that triggers a state transition.
type Event string

const (
	EventApprove Event = "approve"
	EventReject  Event = "reject"
)

// Transition defines a valid state change: an event moves a tenant from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid audit state changes. The review decision is
// one-way: a tenant leaves pending_review exactly once. This is domain
// knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventApprove, Src: StatusPendingReview, Dst: StatusApproved},
	{Event: EventReject, Src: StatusPendingReview, Dst: StatusRejected},
}

// EventForDecision maps an audit decision code to its transition event.
// Returns false for codes outside the accepted set.
func EventForDecision(decision int) (Event, bool) {
	switch decision {
	case DecisionApproved:
		return EventApprove, true
	case DecisionRejected:
		return EventReject, true
	default:
		return "", false
	}
}

// Actor identifies the user performing an operation, recorded in audit
// trail fields and event payloads.
type Actor struct {
	ID   string
	Name string
}

// CompanyInfo is the embedded business profile of a tenant. It has no
// identity of its own and is persisted as a single JSON column.
type CompanyInfo struct {
	CompanyName    string `json:"company_name,omitempty"`
	Logo           string `json:"logo,omitempty"`
	Website        string `json:"website,omitempty"`
	License        string `json:"license,omitempty"`
	LicenseImage   string `json:"license_image,omitempty"`
	Province       string `json:"province,omitempty"`
	City           string `json:"city,omitempty"`
	County         string `json:"county,omitempty"`
	Address        string `json:"address,omitempty"`
	ContactName    string `json:"contact_name,omitempty"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	ContactMailbox string `json:"contact_mailbox,omitempty"`
}

// Tenant is the core domain entity representing a customer organization.
type Tenant struct {
	ID          string
	Code        string
	Name        string
	Alias       string
	CompanyInfo CompanyInfo
	Remark      string
	Status      Status
	Invalid     bool
	Auditor     string
	AuditorID   string
	AuditedAt   *time.Time
	Creator     string
	CreatorID   string
	CreatedAt   time.Time
}

// Draft carries the caller-supplied fields for creating or updating a
// tenant. Identity, code and status are never taken from a draft.
type Draft struct {
	Name        string
	Alias       string
	CompanyInfo CompanyInfo
	Remark      string
}

// NewTenant creates a tenant awaiting review, stamped with its generated
// identity and code and the creating actor.
func NewTenant(id, code string, draft Draft, creator Actor) Tenant {
	return Tenant{
		ID:          id,
		Code:        code,
		Name:        draft.Name,
		Alias:       draft.Alias,
		CompanyInfo: draft.CompanyInfo,
		Remark:      draft.Remark,
		Status:      StatusPendingReview,
		Invalid:     false,
		Creator:     creator.Name,
		CreatorID:   creator.ID,
		CreatedAt:   time.Now().UTC(),
	}
}

// Entitlement is a tenant's time-bounded right to use an application,
// keyed by (TenantID, AppID).
type Entitlement struct {
	TenantID   string
	AppID      string
	ExpireDate time.Time
}

// ListFilter holds optional criteria for listing tenants.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}
