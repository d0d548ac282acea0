// Package domain defines the core business entities for the Legal Form
// backend. These models are independent of external services and represent
// the canonical data structures used throughout the API.
package domain

import (
	"strings"
	"time"
)

// ============================================================
// Request lifecycle
// ============================================================

// Request workflow statuses.
const (
	StatusPending      = "pending"
	StatusPendingQuote = "pending_quote"
	StatusInProgress   = "in_progress"
	StatusCompleted    = "completed"
	StatusRejected     = "rejected"
)

// Payment statuses on a request row.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Request kind discriminator, used wherever documents, messages, payments
// and tracking entries attach to either request table.
const (
	KindCompany = "company"
	KindService = "service"
)

// lifecycleEdges enumerates the allowed status transitions. Completed and
// rejected are terminal.
var lifecycleEdges = map[string][]string{
	StatusPendingQuote: {StatusPending, StatusRejected},
	StatusPending:      {StatusInProgress, StatusRejected},
	StatusInProgress:   {StatusCompleted, StatusRejected},
}

// CanTransition reports whether a request status may move from -> to.
func CanTransition(from, to string) bool {
	for _, next := range lifecycleEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further transition is possible.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusRejected
}

// ============================================================
// Requests (company creation / ancillary service)
// ============================================================

// RequestCommon carries the fields shared by both request kinds: identity,
// contact, lifecycle and commercial state.
type RequestCommon struct {
	ID             string     `json:"id"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	UserID         string     `json:"user_id"`
	ContactName    string     `json:"contact_name"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email"`
	Status         string     `json:"status"`
	PaymentStatus  string     `json:"payment_status"`
	EstimatedPrice *int       `json:"estimated_price,omitempty"` // nil means quote required
	ClientRating   *int       `json:"client_rating,omitempty"`
	ClientReview   string     `json:"client_review,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	ClosedBy       string     `json:"closed_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CompanyRequest is a company-creation case submitted through the wizard.
type CompanyRequest struct {
	RequestCommon
	StructureType      string   `json:"structure_type"`
	CompanyName        string   `json:"company_name,omitempty"`
	Sigle              string   `json:"sigle,omitempty"`
	Capital            string   `json:"capital,omitempty"`
	Activity           string   `json:"activity,omitempty"`
	Bank               string   `json:"bank,omitempty"`
	Region             string   `json:"region"`
	City               string   `json:"city,omitempty"`
	Address            string   `json:"address"`
	AssociatesCount    int      `json:"associates_count,omitempty"`
	AdditionalServices []string `json:"additional_services,omitempty"`
}

// ServiceRequest is an ancillary administrative-service case. It is always
// priced manually, so it enters the lifecycle in pending_quote.
type ServiceRequest struct {
	RequestCommon
	ServiceType    string         `json:"service_type"`
	CompanyName    string         `json:"company_name,omitempty"`
	ServiceDetails map[string]any `json:"service_details,omitempty"`
}

// Request is the sum over both request kinds for code that only needs the
// shared lifecycle fields.
type Request interface {
	Kind() string
	Common() *RequestCommon
}

func (r *CompanyRequest) Kind() string           { return KindCompany }
func (r *CompanyRequest) Common() *RequestCommon { return &r.RequestCommon }

func (r *ServiceRequest) Kind() string           { return KindService }
func (r *ServiceRequest) Common() *RequestCommon { return &r.RequestCommon }

// RequestFilter narrows admin request listings.
type RequestFilter struct {
	Status        string
	PaymentStatus string
	Search        string
}

// ============================================================
// Legal structure types
// ============================================================

// Legal structure types accepted by the intake wizard.
var StructureTypes = []string{
	"ei", "sarl", "sarlu", "sas", "sasu", "filiale",
	"ong", "association", "fondation", "scoops", "sci", "gie",
}

// soleProprietorTypes are the single-owner legal forms: exactly one
// associate record, marked unique owner.
var soleProprietorTypes = map[string]bool{
	"ei":    true,
	"sarlu": true,
	"sasu":  true,
}

// IsSoleProprietor reports whether the structure type admits a single
// associate only.
func IsSoleProprietor(structureType string) bool {
	return soleProprietorTypes[strings.ToLower(structureType)]
}

// IsValidStructureType reports whether the value is a known legal form.
func IsValidStructureType(structureType string) bool {
	for _, t := range StructureTypes {
		if t == strings.ToLower(structureType) {
			return true
		}
	}
	return false
}

// Ancillary service categories offered alongside company creation. All of
// them are quoted manually.
var AdditionalServiceTypes = []string{
	"immobilier", "verification", "acd_agrement", "agrement_fdfp",
	"agrement_agent_immobilier", "transport", "carte_transporteur",
}

// IsValidAdditionalService reports whether the value is a known category.
func IsValidAdditionalService(service string) bool {
	for _, s := range AdditionalServiceTypes {
		if s == service {
			return true
		}
	}
	return false
}

// ============================================================
// Associates
// ============================================================

// Associate is a natural person with an ownership or contribution stake in
// a company-creation request.
type Associate struct {
	ID                string    `json:"id"`
	CompanyRequestID  string    `json:"company_request_id"`
	FullName          string    `json:"full_name"`
	Phone             string    `json:"phone,omitempty"`
	Email             string    `json:"email,omitempty"`
	Profession        string    `json:"profession,omitempty"`
	BirthDate         string    `json:"birth_date,omitempty"`
	BirthPlace        string    `json:"birth_place,omitempty"`
	ResidenceAddress  string    `json:"residence_address,omitempty"`
	MaritalStatus     string    `json:"marital_status,omitempty"`
	MaritalRegime     string    `json:"marital_regime,omitempty"`
	IDRectoURL        string    `json:"id_recto_url,omitempty"`
	IDVersoURL        string    `json:"id_verso_url,omitempty"`
	IsManager         bool      `json:"is_manager"`
	CashContribution  int       `json:"cash_contribution,omitempty"`
	NatureDescription string    `json:"nature_contribution_description,omitempty"`
	NatureValue       int       `json:"nature_contribution_value,omitempty"`
	Percentage        float64   `json:"percentage,omitempty"`
	NumberOfShares    int       `json:"number_of_shares,omitempty"`
	ShareStart        int       `json:"share_start,omitempty"`
	ShareEnd          int       `json:"share_end,omitempty"`
	TotalContribution int       `json:"total_contribution,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
