package domain

import "time"

// ============================================================
// Admin console: notifications, tickets, settings, stats
// ============================================================

// Notification is an in-app notification for a user, typically emitted on
// a status change of one of their requests.
type Notification struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Body        string    `json:"message"`
	Type        string    `json:"type,omitempty"`
	Link        string    `json:"link,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	RequestKind string    `json:"request_type,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ticket is the internal triage record staff attach to a request.
type Ticket struct {
	ID            string     `json:"id"`
	RequestID     string     `json:"request_id"`
	RequestKind   string     `json:"request_type"`
	AssignedTo    string     `json:"assigned_to,omitempty"`
	Priority      string     `json:"priority,omitempty"` // low, normal, high
	Status        string     `json:"status"`             // open, closed
	InternalNotes string     `json:"notes_internal,omitempty"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	ClosedBy      string     `json:"closed_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SiteSetting is a key/value configuration row editable from the console.
type SiteSetting struct {
	ID        string         `json:"id"`
	Key       string         `json:"key"`
	Value     map[string]any `json:"value"`
	Category  string         `json:"category,omitempty"`
	UpdatedBy string         `json:"updated_by,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DashboardStats is the aggregate view on the admin dashboard.
type DashboardStats struct {
	CompanyByStatus map[string]int `json:"company_by_status"`
	ServiceByStatus map[string]int `json:"service_by_status"`
	TotalRequests   int            `json:"total_requests"`
	PendingQuotes   int            `json:"pending_quotes"`
	PaidRevenue     int            `json:"paid_revenue"`
	OpenTickets     int            `json:"open_tickets"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// UpsertTicketRequest is the body for PUT /v1/admin/requests/{kind}/{id}/ticket.
type UpsertTicketRequest struct {
	AssignedTo    string `json:"assignedTo,omitempty"`
	Priority      string `json:"priority,omitempty" validate:"omitempty,oneof=low normal high"`
	InternalNotes string `json:"internalNotes,omitempty"`
	Close         bool   `json:"close,omitempty"`
}

// UpdateSettingRequest is the body for PUT /v1/admin/settings/{key}.
type UpdateSettingRequest struct {
	Value    map[string]any `json:"value" validate:"required"`
	Category string         `json:"category,omitempty"`
}
